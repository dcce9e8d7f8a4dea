package store

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Seed is the catalog loaded at startup. It is injected into the store
// constructors rather than hard-coded so deployments can swap it out.
type Seed struct {
	Categories []Category
	Vendors    []Vendor
	Products   []Product
}

func (s Seed) Validate() error {
	cats := make(map[int]bool, len(s.Categories))
	for _, c := range s.Categories {
		if c.ID <= 0 {
			return fmt.Errorf("category %q: id must be positive", c.Name)
		}
		if cats[c.ID] {
			return fmt.Errorf("duplicate category id %d", c.ID)
		}
		cats[c.ID] = true
	}

	vendors := make(map[int]bool, len(s.Vendors))
	for _, v := range s.Vendors {
		if v.ID <= 0 {
			return fmt.Errorf("vendor %q: id must be positive", v.Name)
		}
		if vendors[v.ID] {
			return fmt.Errorf("duplicate vendor id %d", v.ID)
		}
		vendors[v.ID] = true
	}

	seen := make(map[int]bool, len(s.Products))
	for _, p := range s.Products {
		if p.ID <= 0 {
			return fmt.Errorf("product %q: id must be positive", p.Name)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate product id %d", p.ID)
		}
		seen[p.ID] = true

		if !cats[p.CategoryID] {
			return fmt.Errorf("product %q: unknown category %d", p.Name, p.CategoryID)
		}
		if !vendors[p.VendorID] {
			return fmt.Errorf("product %q: unknown vendor %d", p.Name, p.VendorID)
		}
		if p.Stock < 0 {
			return fmt.Errorf("product %q: negative stock", p.Name)
		}

		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return fmt.Errorf("product %q: bad price %q: %w", p.Name, p.Price, err)
		}
		if price.IsNegative() {
			return fmt.Errorf("product %q: negative price %q", p.Name, p.Price)
		}
	}

	return nil
}

// DefaultSeed is the stock VW/Audi parts catalog.
func DefaultSeed() Seed {
	return Seed{
		Categories: []Category{
			{ID: 1, Name: "Engine", Description: "Engine parts and components", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-engine-parts.jpg"},
			{ID: 2, Name: "Transmission", Description: "Transmission and drivetrain components", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-transmission.jpg"},
			{ID: 3, Name: "Brakes & Wheel Hub", Description: "Brake system and wheel components", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-brakes.jpg"},
			{ID: 4, Name: "Suspension & Steering", Description: "Suspension, steering, and handling parts", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-suspension.jpg"},
			{ID: 5, Name: "Heating & A/C", Description: "Climate control components", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-hvac.jpg"},
			{ID: 6, Name: "Electrical", Description: "Electrical components and sensors", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-electrical.jpg"},
			{ID: 7, Name: "Body & Trim", Description: "Body parts and trim components", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-body.jpg"},
			{ID: 8, Name: "Maintenance", Description: "Filters, fluids, and maintenance items", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-maintenance.jpg"},
			{ID: 9, Name: "Air & Fuel Delivery", Description: "Air intake, fuel system, and related components", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-fuel.jpg"},
			{ID: 10, Name: "Tire & Wheel", Description: "Tires, wheels, and related accessories", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-wheel.jpg"},
			{ID: 11, Name: "Tools & Equipment", Description: "Specialized tools and maintenance equipment", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-tools.jpg"},
			{ID: 12, Name: "Accessories", Description: "Interior and exterior accessories", ImageURL: "https://www.vwpartsvortex.com/images/2013/07/vw-accessories.jpg"},
		},
		Vendors: []Vendor{
			{ID: 1, Name: "Volkswagen OEM", Description: "Genuine Volkswagen parts"},
			{ID: 2, Name: "Audi OEM", Description: "Genuine Audi parts"},
		},
		Products: []Product{
			{
				ID: 1, Name: "Oil Filter",
				Description: "Genuine VW oil filter for optimal engine protection",
				Price:       "12.99", ImageURL: "https://placehold.co/300x200",
				CategoryID: 1, VendorID: 1, Stock: 100,
				Make: "volkswagen", Model: "golf", Year: "2024",
				Engine: "2.0l 4-cylinder", Transmission: "7-speed dsg",
			},
			{
				ID: 2, Name: "Brake Pads",
				Description: "Front brake pads for superior stopping power",
				Price:       "45.99", ImageURL: "https://placehold.co/300x200",
				CategoryID: 2, VendorID: 1, Stock: 50,
				Make: "volkswagen", Model: "passat", Year: "2023",
				Engine: "2.0l tdi", Transmission: "6-speed manual",
			},
			{
				ID: 3, Name: "DSG Transmission Fluid",
				Description: "Special fluid for DSG transmissions",
				Price:       "89.99", ImageURL: "https://placehold.co/300x200",
				CategoryID: 3, VendorID: 1, Stock: 30,
				Make: "audi", Model: "a4", Year: "2024",
				Engine: "2.0l 4-cylinder", Transmission: "7-speed dsg",
			},
			{
				ID: 4, Name: "Suspension Control Arm",
				Description: "Front right control arm with ball joint",
				Price:       "129.99", ImageURL: "https://placehold.co/300x200",
				CategoryID: 4, VendorID: 2, Stock: 20,
				Make: "audi", Model: "q5", Year: "2023",
				Engine: "3.0l v6", Transmission: "8-speed automatic",
			},
		},
	}
}
