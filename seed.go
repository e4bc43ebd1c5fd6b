package main

import (
	"log"
	"math/rand"
	"os"
)

type seedGuitar struct {
	name        string
	brand       string
	guitarType  GuitarType
	price       float64
	description string
	image       string
}

// seedCatalog is the starter inventory inserted when the guitars table is
// empty on first boot.
var seedCatalog = []seedGuitar{
	{"Player Stratocaster", "Fender", TypeElectric, 849.99,
		"Classic Fender tone with modern playability. Alder body, maple neck, 3 single-coil pickups.",
		"https://placeholder.svg?height=300&width=300&query=Fender+Stratocaster+electric+guitar"},
	{"Player Telecaster", "Fender", TypeElectric, 849.99,
		"Timeless Telecaster design. Alder body, maple neck, 2 single-coil pickups.",
		"https://placeholder.svg?height=300&width=300&query=Fender+Telecaster+electric+guitar"},
	{"Les Paul Standard 50s", "Gibson", TypeElectric, 2499.99,
		"Iconic Les Paul with Burstbucker pickups and vintage 50s neck profile.",
		"https://placeholder.svg?height=300&width=300&query=Gibson+Les+Paul+Standard+electric+guitar"},
	{"SG Standard", "Gibson", TypeElectric, 1799.99,
		"Lightweight rock machine with 490R and 490T humbuckers.",
		"https://placeholder.svg?height=300&width=300&query=Gibson+SG+Standard+electric+guitar"},
	{"Custom 24", "PRS", TypeElectric, 3999.99,
		"Versatile flagship model with 85/15 pickups and Pattern Regular neck.",
		"https://placeholder.svg?height=300&width=300&query=PRS+Custom+24+electric+guitar"},
	{"RG550 Genesis", "Ibanez", TypeElectric, 1099.99,
		"Shred-ready superstrat with Edge tremolo and Quantum pickups.",
		"https://placeholder.svg?height=300&width=300&query=Ibanez+RG550+electric+guitar"},
	{"Player Precision Bass", "Fender", TypeBass, 849.99,
		"Industry standard bass with split single-coil pickup and modern C neck.",
		"https://placeholder.svg?height=300&width=300&query=Fender+Precision+Bass"},
	{"Player Jazz Bass", "Fender", TypeBass, 899.99,
		"Versatile jazz bass with two single-coil pickups and slim neck profile.",
		"https://placeholder.svg?height=300&width=300&query=Fender+Jazz+Bass"},
	{"Thunderbird", "Gibson", TypeBass, 2099.99,
		"Legendary bass with through-body neck and T-Bird Plus pickups.",
		"https://placeholder.svg?height=300&width=300&query=Gibson+Thunderbird+Bass"},
	{"SR505E", "Ibanez", TypeBass, 699.99,
		"5-string bass with Bartolini BH2 pickups and jatoba fretboard.",
		"https://placeholder.svg?height=300&width=300&query=Ibanez+SR505+Bass"},
	{"TRBX304", "Yamaha", TypeBass, 349.99,
		"Solid bass guitar with Performance EQ active circuitry.",
		"https://placeholder.svg?height=300&width=300&query=Yamaha+TRBX304+Bass"},
	{"D-28", "Martin", TypeAcoustic, 3299.99,
		"The standard for acoustic guitars. Sitka spruce top, East Indian rosewood.",
		"https://placeholder.svg?height=300&width=300&query=Martin+D-28+acoustic+guitar"},
	{"000-15M", "Martin", TypeAcoustic, 1499.99,
		"All-mahogany 000 body for warm, balanced tone.",
		"https://placeholder.svg?height=300&width=300&query=Martin+000-15M"},
	{"814ce", "Taylor", TypeAcoustic, 3999.99,
		"Grand Auditorium with Sitka spruce and Indian rosewood. ES2 electronics.",
		"https://placeholder.svg?height=300&width=300&query=Taylor+814ce+acoustic+guitar"},
	{"J-45 Standard", "Gibson", TypeAcoustic, 2699.99,
		"The workhorse of Gibson acoustics. Round-shoulder dreadnought.",
		"https://placeholder.svg?height=300&width=300&query=Gibson+J-45+acoustic"},
	{"FG800", "Yamaha", TypeAcoustic, 219.99,
		"Best-selling acoustic with solid spruce top and nato back/sides.",
		"https://placeholder.svg?height=300&width=300&query=Yamaha+FG800+acoustic"},
	{"C40", "Yamaha", TypeClassical, 159.99,
		"Perfect entry-level classical guitar. Spruce top, meranti back/sides.",
		"https://placeholder.svg?height=300&width=300&query=Yamaha+C40+classical+guitar"},
	{"C5", "Cordoba", TypeClassical, 399.99,
		"Handcrafted classical with Canadian cedar top and mahogany back/sides.",
		"https://placeholder.svg?height=300&width=300&query=Cordoba+C5+classical+guitar"},
	{"C10", "Cordoba", TypeClassical, 899.99,
		"All-solid construction with European spruce and Indian rosewood.",
		"https://placeholder.svg?height=300&width=300&query=Cordoba+C10+classical"},
	{"FC-100", "Fender", TypeClassical, 149.99,
		"Affordable classical with laminated spruce top and agathis back/sides.",
		"https://placeholder.svg?height=300&width=300&query=Fender+FC-100+classical"},
}

// seedGuitars populates an empty catalog with the starter inventory.
func seedGuitars(store Store) error {
	count, err := store.GuitarCount()
	if err != nil {
		return err
	}
	if count > 0 {
		log.Printf("catalog already has %d guitars, skipping seed", count)
		return nil
	}
	added := 0
	for _, item := range seedCatalog {
		exists, err := store.GuitarExists(item.name, item.brand)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := store.CreateGuitar(Guitar{
			Name:        item.name,
			Brand:       item.brand,
			Type:        item.guitarType,
			Price:       item.price,
			Stock:       5 + rand.Intn(21),
			Description: item.description,
			ImageURL:    item.image,
		}); err != nil {
			return err
		}
		added++
	}
	log.Printf("seeded %d guitars into the catalog", added)
	return nil
}

// seedAdmin creates the admin account on first boot if it is missing.
// The password comes from ADMIN_PASSWORD, defaulting to the well-known
// demo credential.
func seedAdmin(store Store) error {
	if _, err := store.GetUserByUsername("admin"); err == nil {
		return nil
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "Admin123"
	}
	_, err := store.CreateUser(User{
		Username:     "admin",
		Email:        "admin@stringmaster.com",
		PasswordHash: HashPassword(password),
		Role:         RoleAdmin,
	})
	if err != nil {
		return err
	}
	log.Println("created admin user (username: admin)")
	return nil
}
