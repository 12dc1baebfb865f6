package models

import "sort"

// VehicleType is the kind of vehicle being serviced.
type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleMotorcycle VehicleType = "motorcycle"
)

var AllVehicleTypes = []VehicleType{VehicleCar, VehicleMotorcycle}

func (v VehicleType) Valid() bool {
	return v == VehicleCar || v == VehicleMotorcycle
}

func ParseVehicleType(raw string) (VehicleType, bool) {
	v := VehicleType(normalizeEnum(raw))
	if v == "bike" {
		v = VehicleMotorcycle
	}
	return v, v.Valid()
}

// ServiceCategory groups service types.
type ServiceCategory string

const (
	CategoryMaintenance ServiceCategory = "maintenance"
	CategoryRepair      ServiceCategory = "repair"
	CategoryWashing     ServiceCategory = "washing"
	CategoryInspection  ServiceCategory = "inspection"
)

var AllServiceCategories = []ServiceCategory{CategoryMaintenance, CategoryRepair, CategoryWashing, CategoryInspection}

func (c ServiceCategory) Valid() bool {
	for _, known := range AllServiceCategories {
		if c == known {
			return true
		}
	}
	return false
}

func ParseServiceCategory(raw string) (ServiceCategory, bool) {
	c := ServiceCategory(normalizeEnum(raw))
	return c, c.Valid()
}

// ServiceType is a concrete bookable service.
type ServiceType string

const (
	ServiceRegularMaintenance ServiceType = "regular_maintenance"
	ServiceEngineOilChange    ServiceType = "engine_oil_change"
	ServiceOilFilter          ServiceType = "oil_filter_replacement"
	ServiceAirFilter          ServiceType = "air_filter_cleaning"
	ServiceBrakeCheck         ServiceType = "brake_check"
	ServiceWheelAlignment     ServiceType = "wheel_alignment"
	ServiceChainCleaning      ServiceType = "chain_cleaning"
	ServiceBrakeAdjustment    ServiceType = "brake_adjustment"

	ServiceEngineRepair       ServiceType = "engine_repair"
	ServiceTransmissionRepair ServiceType = "transmission_repair"
	ServiceBrakeRepair        ServiceType = "brake_repair"
	ServiceSuspensionRepair   ServiceType = "suspension_repair"
	ServiceElectricalRepair   ServiceType = "electrical_repair"
	ServiceACRepair           ServiceType = "ac_repair"
	ServiceBodyRepair         ServiceType = "body_repair"

	ServiceBasicWash    ServiceType = "basic_wash"
	ServicePremiumWash  ServiceType = "premium_wash"
	ServiceDeepCleaning ServiceType = "deep_cleaning"

	ServiceGeneralInspection ServiceType = "general_inspection"
)

type serviceSpec struct {
	category ServiceCategory
	vehicles []VehicleType
}

var both = []VehicleType{VehicleCar, VehicleMotorcycle}

var serviceCatalog = map[ServiceType]serviceSpec{
	ServiceRegularMaintenance: {CategoryMaintenance, both},
	ServiceEngineOilChange:    {CategoryMaintenance, both},
	ServiceOilFilter:          {CategoryMaintenance, both},
	ServiceAirFilter:          {CategoryMaintenance, both},
	ServiceBrakeCheck:         {CategoryMaintenance, []VehicleType{VehicleCar}},
	ServiceWheelAlignment:     {CategoryMaintenance, []VehicleType{VehicleCar}},
	ServiceChainCleaning:      {CategoryMaintenance, []VehicleType{VehicleMotorcycle}},
	ServiceBrakeAdjustment:    {CategoryMaintenance, []VehicleType{VehicleMotorcycle}},

	ServiceEngineRepair:       {CategoryRepair, both},
	ServiceTransmissionRepair: {CategoryRepair, both},
	ServiceBrakeRepair:        {CategoryRepair, both},
	ServiceSuspensionRepair:   {CategoryRepair, both},
	ServiceElectricalRepair:   {CategoryRepair, both},
	ServiceACRepair:           {CategoryRepair, []VehicleType{VehicleCar}},
	ServiceBodyRepair:         {CategoryRepair, both},

	ServiceBasicWash:    {CategoryWashing, both},
	ServicePremiumWash:  {CategoryWashing, both},
	ServiceDeepCleaning: {CategoryWashing, both},

	ServiceGeneralInspection: {CategoryInspection, both},
}

func (s ServiceType) Valid() bool {
	_, ok := serviceCatalog[s]
	return ok
}

// Category returns the category the service belongs to.
func (s ServiceType) Category() ServiceCategory {
	return serviceCatalog[s].category
}

// OfferedFor reports whether the service is available for the vehicle type.
func (s ServiceType) OfferedFor(v VehicleType) bool {
	for _, candidate := range serviceCatalog[s].vehicles {
		if candidate == v {
			return true
		}
	}
	return false
}

func ParseServiceType(raw string) (ServiceType, bool) {
	s := ServiceType(normalizeEnum(raw))
	return s, s.Valid()
}

// ServicesFor lists the service types of a category offered for a vehicle,
// sorted by name.
func ServicesFor(category ServiceCategory, vehicle VehicleType) []ServiceType {
	var out []ServiceType
	for st, spec := range serviceCatalog {
		if spec.category == category && st.OfferedFor(vehicle) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Catalog is the public description of bookable services.
type Catalog struct {
	VehicleTypes []VehicleType                                     `json:"vehicle_types"`
	Categories   []ServiceCategory                                 `json:"categories"`
	Services     map[VehicleType]map[ServiceCategory][]ServiceType `json:"services"`
	Statuses     []BookingStatus                                   `json:"statuses"`
	SlotHours    []int                                             `json:"slot_hours"`
}

// NewCatalog builds the catalog for the given slot hours.
func NewCatalog(slotHours []int) Catalog {
	services := make(map[VehicleType]map[ServiceCategory][]ServiceType, len(AllVehicleTypes))
	for _, v := range AllVehicleTypes {
		byCategory := make(map[ServiceCategory][]ServiceType, len(AllServiceCategories))
		for _, c := range AllServiceCategories {
			byCategory[c] = ServicesFor(c, v)
		}
		services[v] = byCategory
	}
	return Catalog{
		VehicleTypes: AllVehicleTypes,
		Categories:   AllServiceCategories,
		Services:     services,
		Statuses:     []BookingStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled},
		SlotHours:    slotHours,
	}
}
