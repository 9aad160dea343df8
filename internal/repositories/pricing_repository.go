package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

var (
	ErrTierNotFound          = errors.New("pricing tier not found")
	ErrCategoryPriceNotFound = errors.New("no category pricing for tier")
	ErrDiscountNotFound      = errors.New("discount not found")
)

// PricingRepository reads the typed pricing configuration: tiers with
// per-category amounts, and discounts.
type PricingRepository interface {
	FindAllTiers(db *gorm.DB) ([]models.PricingTier, error)
	FindTierByID(db *gorm.DB, id string) (*models.PricingTier, error)
	FindDefaultTier(db *gorm.DB) (*models.PricingTier, error)

	FindCategoryPrice(db *gorm.DB, tierID, categoryKey string) (*models.CategoryPrice, error)

	FindTimeBasedDiscounts(db *gorm.DB, now time.Time) ([]models.Discount, error)
	FindDiscountByCode(db *gorm.DB, code string) (*models.Discount, error)

	// UpsertTier seeds or refreshes a tier and its category prices.
	UpsertTier(db *gorm.DB, tier *models.PricingTier) error
}

type pricingRepository struct{}

func NewPricingRepository() PricingRepository {
	return &pricingRepository{}
}

func (r *pricingRepository) FindAllTiers(db *gorm.DB) ([]models.PricingTier, error) {
	var tiers []models.PricingTier
	err := db.Preload("Categories").Order("start_date ASC").Find(&tiers).Error
	return tiers, err
}

func (r *pricingRepository) FindTierByID(db *gorm.DB, id string) (*models.PricingTier, error) {
	var tier models.PricingTier
	if err := db.Preload("Categories").First(&tier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, err
	}
	return &tier, nil
}

func (r *pricingRepository) FindDefaultTier(db *gorm.DB) (*models.PricingTier, error) {
	var tier models.PricingTier
	if err := db.Preload("Categories").Where("is_default = ?", true).First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, err
	}
	return &tier, nil
}

func (r *pricingRepository) FindCategoryPrice(db *gorm.DB, tierID, categoryKey string) (*models.CategoryPrice, error) {
	var price models.CategoryPrice
	err := db.Where("tier_id = ? AND category_key = ?", tierID, categoryKey).First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryPriceNotFound
		}
		return nil, err
	}
	return &price, nil
}

func (r *pricingRepository) FindTimeBasedDiscounts(db *gorm.DB, now time.Time) ([]models.Discount, error) {
	var discounts []models.Discount
	err := db.Where("type = ? AND active = ?", models.DiscountTypeTimeBased, true).
		Where("(start_date IS NULL OR start_date <= ?) AND (end_date IS NULL OR end_date >= ?)", now, now).
		Find(&discounts).Error
	return discounts, err
}

func (r *pricingRepository) FindDiscountByCode(db *gorm.DB, code string) (*models.Discount, error) {
	var discount models.Discount
	err := db.Where("type = ? AND code = ?", models.DiscountTypeCode, code).First(&discount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}
	return &discount, nil
}

func (r *pricingRepository) UpsertTier(db *gorm.DB, tier *models.PricingTier) error {
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Omit("Categories").Create(tier).Error; err != nil {
		return err
	}

	for i := range tier.Categories {
		tier.Categories[i].TierID = tier.ID
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tier_id"}, {Name: "category_key"}},
			UpdateAll: true,
		}).Create(&tier.Categories[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
