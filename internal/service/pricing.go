package service

import (
	"fmt"
	"os"

	"autoassist/internal/domain"
	"autoassist/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// PriceTable holds INR prices: a base price per vehicle and category plus a
// price per service. Estimate is base + service.
type PriceTable struct {
	base     map[models.VehicleType]map[models.ServiceCategory]decimal.Decimal
	services map[models.VehicleType]map[models.ServiceType]decimal.Decimal
}

func inr(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// DefaultPriceTable returns the built-in price list.
func DefaultPriceTable() *PriceTable {
	repairs := func(ac bool) map[models.ServiceType]decimal.Decimal {
		m := map[models.ServiceType]decimal.Decimal{
			models.ServiceEngineRepair:       inr(5000),
			models.ServiceTransmissionRepair: inr(4000),
			models.ServiceBrakeRepair:        inr(2000),
			models.ServiceSuspensionRepair:   inr(3000),
			models.ServiceElectricalRepair:   inr(1500),
			models.ServiceBodyRepair:         inr(1000),
		}
		if ac {
			m[models.ServiceACRepair] = inr(2500)
		}
		return m
	}

	car := repairs(true)
	for k, v := range map[models.ServiceType]decimal.Decimal{
		models.ServiceRegularMaintenance: decimal.Zero,
		models.ServiceEngineOilChange:    inr(500),
		models.ServiceOilFilter:          inr(300),
		models.ServiceAirFilter:          inr(400),
		models.ServiceBrakeCheck:         inr(600),
		models.ServiceWheelAlignment:     inr(800),
		models.ServiceBasicWash:          inr(500),
		models.ServicePremiumWash:        inr(1000),
		models.ServiceDeepCleaning:       inr(2000),
		models.ServiceGeneralInspection:  decimal.Zero,
	} {
		car[k] = v
	}

	bike := repairs(false)
	for k, v := range map[models.ServiceType]decimal.Decimal{
		models.ServiceRegularMaintenance: decimal.Zero,
		models.ServiceEngineOilChange:    inr(300),
		models.ServiceOilFilter:          inr(200),
		models.ServiceAirFilter:          inr(250),
		models.ServiceChainCleaning:      inr(200),
		models.ServiceBrakeAdjustment:    inr(300),
		models.ServiceBasicWash:          inr(200),
		models.ServicePremiumWash:        inr(500),
		models.ServiceDeepCleaning:       inr(1000),
		models.ServiceGeneralInspection:  decimal.Zero,
	} {
		bike[k] = v
	}

	return &PriceTable{
		base: map[models.VehicleType]map[models.ServiceCategory]decimal.Decimal{
			models.VehicleCar: {
				models.CategoryMaintenance: inr(2000),
				models.CategoryRepair:      decimal.Zero,
				models.CategoryWashing:     inr(500),
				models.CategoryInspection:  inr(1000),
			},
			models.VehicleMotorcycle: {
				models.CategoryMaintenance: inr(1000),
				models.CategoryRepair:      decimal.Zero,
				models.CategoryWashing:     inr(200),
				models.CategoryInspection:  inr(500),
			},
		},
		services: map[models.VehicleType]map[models.ServiceType]decimal.Decimal{
			models.VehicleCar:        car,
			models.VehicleMotorcycle: bike,
		},
	}
}

// priceFile is the YAML layout of booking.price_file. Keys are vehicle types,
// then categories (base) or service types (services).
type priceFile struct {
	Base     map[string]map[string]string `yaml:"base"`
	Services map[string]map[string]string `yaml:"services"`
}

// LoadPriceTable reads overrides from path on top of the defaults. An empty path
// returns the defaults.
func LoadPriceTable(path string) (*PriceTable, error) {
	table := DefaultPriceTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price file: %w", err)
	}
	var file priceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse price file: %w", err)
	}

	for rawVehicle, prices := range file.Base {
		vehicle, ok := models.ParseVehicleType(rawVehicle)
		if !ok {
			return nil, fmt.Errorf("price file: unknown vehicle type %q", rawVehicle)
		}
		for rawCategory, rawPrice := range prices {
			category, ok := models.ParseServiceCategory(rawCategory)
			if !ok {
				return nil, fmt.Errorf("price file: unknown category %q", rawCategory)
			}
			price, err := parsePrice(rawPrice)
			if err != nil {
				return nil, fmt.Errorf("price file: base %s/%s: %w", vehicle, category, err)
			}
			table.base[vehicle][category] = price
		}
	}

	for rawVehicle, prices := range file.Services {
		vehicle, ok := models.ParseVehicleType(rawVehicle)
		if !ok {
			return nil, fmt.Errorf("price file: unknown vehicle type %q", rawVehicle)
		}
		for rawService, rawPrice := range prices {
			st, ok := models.ParseServiceType(rawService)
			if !ok || !st.OfferedFor(vehicle) {
				return nil, fmt.Errorf("price file: %q is not offered for %s", rawService, vehicle)
			}
			price, err := parsePrice(rawPrice)
			if err != nil {
				return nil, fmt.Errorf("price file: service %s/%s: %w", vehicle, st, err)
			}
			table.services[vehicle][st] = price
		}
	}

	return table, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", raw)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", raw)
	}
	return price, nil
}

// Estimate returns base + service price. Unknown services, or services not
// offered for the vehicle, are a validation error.
func (t *PriceTable) Estimate(serviceType models.ServiceType, vehicleType models.VehicleType) (decimal.Decimal, error) {
	if !vehicleType.Valid() {
		return decimal.Zero, domain.Validation("unknown vehicle type %q", vehicleType)
	}
	if !serviceType.Valid() {
		return decimal.Zero, domain.Validation("unknown service type %q", serviceType)
	}
	if !serviceType.OfferedFor(vehicleType) {
		return decimal.Zero, domain.Validation("%s is not offered for %s", serviceType, vehicleType)
	}

	price, ok := t.services[vehicleType][serviceType]
	if !ok {
		return decimal.Zero, domain.Validation("no price for %s on %s", serviceType, vehicleType)
	}
	return t.base[vehicleType][serviceType.Category()].Add(price), nil
}
