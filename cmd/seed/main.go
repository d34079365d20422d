package main

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vruksh/plantshop/internal/config"
	"github.com/vruksh/plantshop/internal/hash"
	"github.com/vruksh/plantshop/internal/models"
)

func seedUsers(db *gorm.DB) error {
	adminHash, err := hash.HashPassword("admin123")
	if err != nil {
		return err
	}
	customerHash, err := hash.HashPassword("123456")
	if err != nil {
		return err
	}

	users := []models.User{
		{Username: "admin", PasswordHash: adminHash, Role: "admin"},
		{Username: "customer", PasswordHash: customerHash, Role: "customer"},
	}
	for i := range users {
		if err := db.Where(models.User{Username: users[i].Username}).
			FirstOrCreate(&users[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedCategories(db *gorm.DB) ([]models.Category, error) {
	categories := []models.Category{
		{Name: "Indoor Plants", Description: "Plants suitable for indoor environments"},
		{Name: "Outdoor Plants", Description: "Plants suitable for outdoor environments"},
		{Name: "Flowering Plants", Description: "Beautiful flowering plants"},
		{Name: "Medicinal Plants", Description: "Plants with medicinal properties"},
	}
	for i := range categories {
		if err := db.Where(models.Category{Name: categories[i].Name}).
			FirstOrCreate(&categories[i]).Error; err != nil {
			return nil, err
		}
	}
	return categories, nil
}

func seedProducts(db *gorm.DB, categories []models.Category) error {
	products := []models.Product{
		{
			Name:        "Monstera Deliciosa",
			Description: "A popular indoor plant with large, glossy leaves",
			Price:       29.99,
			CategoryID:  categories[0].ID,
			Stock:       20,
			Images: []models.ProductImage{
				{PublicID: "vruksh/products/" + uuid.NewString(), URL: "https://example.com/monstera1.jpg"},
			},
		},
		{
			Name:        "Rose Bush",
			Description: "Beautiful flowering rose bush",
			Price:       19.99,
			CategoryID:  categories[2].ID,
			Stock:       35,
			Images: []models.ProductImage{
				{PublicID: "vruksh/products/" + uuid.NewString(), URL: "https://example.com/rose1.jpg"},
			},
		},
		{
			Name:        "Snake Plant",
			Description: "Hardy indoor plant that tolerates low light",
			Price:       15.50,
			CategoryID:  categories[0].ID,
			Stock:       50,
		},
		{
			Name:        "Aloe Vera",
			Description: "Succulent with medicinal gel in its leaves",
			Price:       9.99,
			CategoryID:  categories[3].ID,
			Stock:       40,
		},
		{
			Name:        "Lavender",
			Description: "Fragrant outdoor plant, attracts pollinators",
			Price:       12.75,
			CategoryID:  categories[1].ID,
			Stock:       25,
		},
	}
	for i := range products {
		if err := db.Where(models.Product{Name: products[i].Name}).
			FirstOrCreate(&products[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	if err := seedUsers(db); err != nil {
		log.Fatalf("seeding users: %v", err)
	}

	categories, err := seedCategories(db)
	if err != nil {
		log.Fatalf("seeding categories: %v", err)
	}

	if err := seedProducts(db, categories); err != nil {
		log.Fatalf("seeding products: %v", err)
	}

	log.Println("seed complete")
}
