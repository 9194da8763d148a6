package db

import (
	"context"
	"fmt"

	"cupcake/internal/domain/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seed用のIDは名前から決める（何度流しても同じ行になる）
var seedNamespace = uuid.MustParse("6f1c3a52-7d0e-4c1b-9a39-2f0f5b7e8d11")

func seedID(kind, name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+name)).String()
}

type seedProduct struct {
	name, description, price, category, image string
	featured                                  bool
}

var seedCategories = []model.Category{
	{Name: "Clássicos", Description: "Sabores tradicionais que conquistaram corações"},
	{Name: "Chocolate", Description: "Para os amantes do chocolate mais intenso"},
	{Name: "Frutas", Description: "Sabores refrescantes com frutas brasileiras"},
	{Name: "Especiais", Description: "Criações únicas da casa"},
	{Name: "Temporada", Description: "Sabores sazonais por tempo limitado"},
}

var seedProducts = []seedProduct{
	{"Red Velvet Brasileiro", "Massa vermelha aveludada com cream cheese artesanal.", "8.90", "Clássicos", "/images/red-velvet.jpg", true},
	{"Baunilha Clássica", "O tradicional cupcake de baunilha com cobertura cremosa.", "6.90", "Clássicos", "/images/baunilha.jpg", false},
	{"Brigadeiro Gourmet", "Cobertura de brigadeiro tradicional e granulado belga.", "9.50", "Chocolate", "/images/brigadeiro.jpg", true},
	{"Nutella Dream", "Recheado com Nutella e avelãs tostadas.", "11.90", "Chocolate", "/images/nutella.jpg", false},
	{"Chocolate Duplo", "Massa de chocolate com chips e ganache.", "10.50", "Chocolate", "/images/chocolate-duplo.jpg", false},
	{"Limão Siciliano", "Raspas de limão siciliano e cream cheese cítrico.", "7.90", "Frutas", "/images/limao.jpg", true},
	{"Morango Premium", "Pedaços de morango fresco e cobertura rosada.", "10.50", "Frutas", "/images/morango.jpg", false},
	{"Coco Tropical", "Massa de coco fresco e cobertura de beijinho.", "8.50", "Frutas", "/images/coco.jpg", false},
	{"Maracujá Brasileiro", "Polpa de maracujá natural e cobertura azedinha.", "9.90", "Frutas", "/images/maracuja.jpg", false},
	{"Doce de Leite Artesanal", "Doce de leite caseiro no recheio e na cobertura.", "12.50", "Especiais", "/images/doce-de-leite.jpg", true},
	{"Churros Cupcake", "Canela, açúcar e recheio de doce de leite.", "13.90", "Especiais", "/images/churros.jpg", false},
	{"Café Brasileiro", "Café expresso e buttercream com grãos de café.", "10.90", "Especiais", "/images/cafe.jpg", false},
	{"Panetone Natalino", "Massa de panetone e frutas cristalizadas.", "15.90", "Temporada", "/images/panetone.jpg", false},
	{"Açaí Gourmet", "Açaí natural, granola crocante e cream cheese roxo.", "11.50", "Temporada", "/images/acai.jpg", false},
}

func intPtr(v int) *int { return &v }

var seedCoupons = []model.Coupon{
	{Code: "BEMVINDO10", DiscountPercentage: 10, MaxUsage: intPtr(100), IsActive: true},
	{Code: "DOCE20", DiscountPercentage: 20, IsActive: true},
}

// Seed はカテゴリ・商品・クーポンの初期データを入れる。既存行はそのまま。
func Seed(ctx context.Context, gdb *gorm.DB) error {
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryIDs := make(map[string]string, len(seedCategories))
		for _, c := range seedCategories {
			c.ID = seedID("category", c.Name)
			categoryIDs[c.Name] = c.ID
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
		}

		for _, sp := range seedProducts {
			catID := categoryIDs[sp.category]
			p := model.Product{
				ID:          seedID("product", sp.name),
				Name:        sp.name,
				Description: sp.description,
				Price:       decimal.RequireFromString(sp.price),
				ImageURL:    sp.image,
				CategoryID:  &catID,
				IsAvailable: true,
				IsFeatured:  sp.featured,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", sp.name, err)
			}
		}

		for _, c := range seedCoupons {
			c.ID = seedID("coupon", c.Code)
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
				return fmt.Errorf("seed coupon %s: %w", c.Code, err)
			}
		}
		return nil
	})
}
