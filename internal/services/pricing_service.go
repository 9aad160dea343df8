package services

import (
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/appErrors"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/config"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/logger"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
)

// TierSource tags how the active tier was resolved.
type TierSource string

const (
	TierSourceWindow  TierSource = "window"
	TierSourceDefault TierSource = "default"
)

// TierResolution is the tagged result of resolving the active tier.
type TierResolution struct {
	Tier   *models.PricingTier
	Source TierSource
}

// PricingService independently derives what a registrant should owe.
// The amount asserted by the client, or even by the gateway record, is
// never used for the persisted breakdown; only this recalculation is.
type PricingService interface {
	// ResolveActiveTier picks the tier whose [StartDate, EndDate] window
	// contains now, falling back to the configured default tier.
	ResolveActiveTier(db *gorm.DB, now time.Time) (*TierResolution, error)

	// RecalculateRegistration recomputes the full registration charge for
	// a registrant: base fee, workshops, accompanying persons,
	// accommodation, GST and discounts.
	RecalculateRegistration(db *gorm.DB, user *models.User, opts RecalcOptions) (*models.PaymentAmount, *models.Breakdown, error)

	// RecalculateWorkshopAddon recomputes the charge for workshops bought
	// after registration. Only the addon workshops and GST are charged.
	RecalculateWorkshopAddon(db *gorm.DB, user *models.User, workshopIDs []string, opts RecalcOptions) (*models.PaymentAmount, *models.Breakdown, error)
}

// RecalcOptions controls one recalculation.
type RecalcOptions struct {
	Now          time.Time
	DiscountCode string
}

type pricingService struct {
	pricingRepo  repositories.PricingRepository
	workshopRepo repositories.WorkshopRepository
	cfg          *config.Config
}

func NewPricingService(
	pricingRepo repositories.PricingRepository,
	workshopRepo repositories.WorkshopRepository,
	cfg *config.Config,
) PricingService {
	return &pricingService{
		pricingRepo:  pricingRepo,
		workshopRepo: workshopRepo,
		cfg:          cfg,
	}
}

func (s *pricingService) ResolveActiveTier(db *gorm.DB, now time.Time) (*TierResolution, error) {
	tiers, err := s.pricingRepo.FindAllTiers(db)
	if err != nil {
		return nil, err
	}

	for i := range tiers {
		tier := &tiers[i]
		if !now.Before(tier.StartDate) && !now.After(tier.EndDate) {
			return &TierResolution{Tier: tier, Source: TierSourceWindow}, nil
		}
	}

	// No window matches: fall back to the designated default tier.
	if s.cfg.Pricing.DefaultTierID != "" {
		tier, err := s.pricingRepo.FindTierByID(db, s.cfg.Pricing.DefaultTierID)
		if err == nil {
			return &TierResolution{Tier: tier, Source: TierSourceDefault}, nil
		}
	}
	tier, err := s.pricingRepo.FindDefaultTier(db)
	if err != nil {
		if appErrors.Is(err, repositories.ErrTierNotFound) {
			return nil, appErrors.ErrNoActiveTier
		}
		return nil, err
	}
	return &TierResolution{Tier: tier, Source: TierSourceDefault}, nil
}

func (s *pricingService) RecalculateRegistration(db *gorm.DB, user *models.User, opts RecalcOptions) (*models.PaymentAmount, *models.Breakdown, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	resolution, err := s.ResolveActiveTier(db, now)
	if err != nil {
		return nil, nil, err
	}
	tier := resolution.Tier

	categoryPrice, err := s.pricingRepo.FindCategoryPrice(db, tier.ID, user.Registration.Category)
	if err != nil {
		if appErrors.Is(err, repositories.ErrCategoryPriceNotFound) {
			// Fatal configuration error. Failing loudly beats recording a
			// zero-amount registration payment.
			return nil, nil, appErrors.ErrPricingNotConfigured.WithDetails(map[string]string{
				"tierId":   tier.ID,
				"category": user.Registration.Category,
			})
		}
		return nil, nil, err
	}

	workshopFees, workshopTotal, err := s.priceWorkshops(db, user.Registration.Workshops)
	if err != nil {
		return nil, nil, err
	}

	accompanyingFees, accompanyingTotal := s.priceAccompanying(user.Registration.AccompanyingPersons, tier.AccompanyingPersonFee)

	var accommodation float64
	if user.Registration.AccommodationSelected {
		accommodation = user.Registration.AccommodationTotal
	}

	breakdown := &models.Breakdown{
		TierID:                 tier.ID,
		TierName:               tier.Name,
		RegistrationType:       categoryPrice.CategoryKey,
		RegistrationTypeLabel:  categoryPrice.Label,
		BaseAmount:             categoryPrice.Amount,
		WorkshopFees:           workshopFees,
		AccompanyingPersonFees: accompanyingFees,
		AccommodationAmount:    accommodation,
		GSTPercent:             s.cfg.Pricing.GSTPercent,
	}

	amount := s.assemble(db, models.PaymentAmount{
		Registration:        categoryPrice.Amount,
		Workshops:           workshopTotal,
		AccompanyingPersons: accompanyingTotal,
		Accommodation:       accommodation,
	}, breakdown, now, opts.DiscountCode)

	return amount, breakdown, nil
}

func (s *pricingService) RecalculateWorkshopAddon(db *gorm.DB, user *models.User, workshopIDs []string, opts RecalcOptions) (*models.PaymentAmount, *models.Breakdown, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	workshopFees, workshopTotal, err := s.priceWorkshops(db, workshopIDs)
	if err != nil {
		return nil, nil, err
	}

	breakdown := &models.Breakdown{
		RegistrationType:      user.Registration.Category,
		RegistrationTypeLabel: "Workshop Add-on",
		WorkshopFees:          workshopFees,
		GSTPercent:            s.cfg.Pricing.GSTPercent,
	}

	amount := s.assemble(db, models.PaymentAmount{
		Workshops: workshopTotal,
	}, breakdown, now, opts.DiscountCode)

	return amount, breakdown, nil
}

// priceWorkshops prices a selection set at the current catalog price, not
// the selection-time price. A workshop missing from the catalog is a
// configuration error and aborts the recalculation.
func (s *pricingService) priceWorkshops(db *gorm.DB, workshopIDs []string) ([]models.WorkshopFee, float64, error) {
	var fees []models.WorkshopFee
	var total float64

	for _, id := range workshopIDs {
		workshop, err := s.workshopRepo.FindByID(db, id)
		if err != nil {
			if appErrors.Is(err, repositories.ErrWorkshopNotFound) {
				return nil, 0, appErrors.ErrPricingNotConfigured.WithDetails(map[string]string{
					"workshopId": id,
				})
			}
			return nil, 0, err
		}
		fees = append(fees, models.WorkshopFee{
			WorkshopID: workshop.ID,
			Name:       workshop.Name,
			Amount:     workshop.Price,
		})
		total += workshop.Price
	}

	return fees, total, nil
}

// priceAccompanying bills each accompanying person at the tier fee,
// exempting persons below the configured age threshold.
func (s *pricingService) priceAccompanying(persons []models.AccompanyingPerson, tierFee float64) ([]models.AccompanyingPersonFee, float64) {
	var fees []models.AccompanyingPersonFee
	var total float64

	for _, p := range persons {
		exempt := p.Age < s.cfg.Pricing.AgeExemptionMax
		fee := models.AccompanyingPersonFee{
			Name:   p.Name,
			Age:    p.Age,
			Exempt: exempt,
		}
		if !exempt {
			fee.Amount = tierFee
			total += tierFee
		}
		fees = append(fees, fee)
	}

	return fees, total
}

// assemble adds GST on the pre-tax sum, applies discounts on the gross
// total (GST first, then discounts), and rounds the grand total to the
// nearest rupee.
func (s *pricingService) assemble(db *gorm.DB, amount models.PaymentAmount, breakdown *models.Breakdown, now time.Time, discountCode string) *models.PaymentAmount {
	preTax := amount.Registration + amount.Workshops + amount.AccompanyingPersons + amount.Accommodation
	amount.GST = round2(preTax * s.cfg.Pricing.GSTPercent / 100)
	gross := preTax + amount.GST

	applied, discountTotal := s.applyDiscounts(db, gross, now, discountCode)
	breakdown.DiscountsApplied = applied
	amount.Discount = discountTotal

	amount.Total = math.Round(gross - discountTotal)
	amount.Currency = s.cfg.Pricing.Currency
	return &amount
}

func (s *pricingService) applyDiscounts(db *gorm.DB, gross float64, now time.Time, code string) ([]models.AppliedDiscount, float64) {
	var applied []models.AppliedDiscount
	var total float64
	remaining := gross

	timeBased, err := s.pricingRepo.FindTimeBasedDiscounts(db, now)
	if err != nil {
		// Discounts are optional; a read failure must not block a payment.
		logger.WithError(err).Warn("time-based discount lookup failed")
		timeBased = nil
	}

	for i := range timeBased {
		d := &timeBased[i]
		cut := round2(remaining * d.Percent / 100)
		applied = append(applied, models.AppliedDiscount{
			Type:    d.Type,
			Percent: d.Percent,
			Amount:  cut,
		})
		total += cut
		remaining -= cut
	}

	if code != "" {
		d, err := s.pricingRepo.FindDiscountByCode(db, code)
		if err != nil {
			logger.Warn("discount code not found", "code", code)
		} else if d.ActiveAt(now) {
			cut := round2(remaining * d.Percent / 100)
			applied = append(applied, models.AppliedDiscount{
				Type:    d.Type,
				Code:    d.Code,
				Percent: d.Percent,
				Amount:  cut,
			})
			total += cut
		}
	}

	return applied, total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
