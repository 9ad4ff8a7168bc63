// Package pricing считает часы, стоимость и доставку для заявки.
package pricing

import (
	"fmt"

	"github.com/senyabanana/equipment-rental/internal/models"

	"github.com/shopspring/decimal"
)

var transportFees = map[models.TransportOption]decimal.Decimal{
	models.WeHandleIt:  decimal.NewFromInt(150),
	models.YouHandleIt: decimal.Zero,
}

var equipmentMultipliers = map[models.EquipmentCategory]decimal.Decimal{
	models.SkidSteersTrackLoaders: decimal.RequireFromString("1.0"),
	models.FrontEndLoaders:        decimal.RequireFromString("1.2"),
	models.BackhoesExcavators:     decimal.RequireFromString("1.1"),
	models.Bulldozers:             decimal.RequireFromString("1.5"),
	models.Graders:                decimal.RequireFromString("1.3"),
	models.DumpTrucks:             decimal.RequireFromString("1.1"),
	models.WaterTrucks:            decimal.RequireFromString("1.0"),
	models.Sweepers:               decimal.RequireFromString("1.2"),
	models.Trenchers:              decimal.RequireFromString("1.1"),
}

var hoursPerUnit = map[models.DurationType]int{
	models.HalfDay:  4,
	models.FullDay:  8,
	models.MultiDay: 8,
	models.Weekly:   40,
}

// Предельная длительность одной брони в единицах её типа.
var maxDurationValue = map[models.DurationType]int{
	models.HalfDay:  30,
	models.FullDay:  30,
	models.MultiDay: 365,
	models.Weekly:   52,
}

var durationUnits = map[models.DurationType]string{
	models.HalfDay:  "days",
	models.FullDay:  "days",
	models.MultiDay: "days",
	models.Weekly:   "weeks",
}

// Input - параметры расчёта стоимости заявки.
type Input struct {
	DurationType      models.DurationType      `json:"durationType" validate:"required"`
	DurationValue     int                      `json:"durationValue"`
	BaseRate          decimal.Decimal          `json:"baseRate"`
	RateType          models.RateType          `json:"rateType" validate:"required"`
	Transport         models.TransportOption   `json:"transport" validate:"required"`
	EquipmentCategory models.EquipmentCategory `json:"equipmentCategory" validate:"required"`
}

// Result - итог расчёта стоимости.
type Result struct {
	TotalHours      int             `json:"totalHours"`
	BaseCost        decimal.Decimal `json:"baseCost"`
	TransportFee    decimal.Decimal `json:"transportFee"`
	TotalEstimate   decimal.Decimal `json:"totalEstimate"`
	DurationDisplay string          `json:"durationDisplay"`
}

// IsKnownCategory проверяет, что для категории задан коэффициент.
func IsKnownCategory(category models.EquipmentCategory) bool {
	_, ok := equipmentMultipliers[category]
	return ok
}

// TotalHours переводит длительность аренды в часы.
func TotalHours(durationType models.DurationType, durationValue int) (int, error) {
	if durationValue <= 0 {
		return 0, models.NewServiceError(models.ErrInvalidDuration, "Duration value must be positive").
			WithDetails(map[string]any{"durationValue": durationValue})
	}
	perUnit, ok := hoursPerUnit[durationType]
	if !ok {
		return 0, models.NewServiceError(models.ErrInvalidDurationType, "Invalid duration type").
			WithDetails(map[string]any{"durationType": durationType})
	}
	if limit := maxDurationValue[durationType]; durationValue > limit {
		return 0, models.NewServiceError(models.ErrInvalidDuration,
			fmt.Sprintf("Duration cannot exceed %d %s for %s bookings", limit, durationUnits[durationType], durationType)).
			WithDetails(map[string]any{"durationValue": durationValue})
	}
	return perUnit * durationValue, nil
}

// DurationDisplay возвращает длительность в читаемом виде.
func DurationDisplay(durationType models.DurationType, durationValue int) (string, error) {
	hours, err := TotalHours(durationType, durationValue)
	if err != nil {
		return "", err
	}

	switch durationType {
	case models.HalfDay:
		if durationValue == 1 {
			return "Half Day (4 hours)", nil
		}
		return fmt.Sprintf("%d Half Days (%d hours)", durationValue, hours), nil
	case models.FullDay:
		if durationValue == 1 {
			return "Full Day (8 hours)", nil
		}
		return fmt.Sprintf("%d Full Days (%d hours)", durationValue, hours), nil
	case models.MultiDay:
		return fmt.Sprintf("%d Days (%d hours)", durationValue, hours), nil
	default:
		if durationValue == 1 {
			return "1 Week (40 hours)", nil
		}
		return fmt.Sprintf("%d Weeks (%d hours)", durationValue, hours), nil
	}
}

// TransportFee возвращает стоимость доставки.
func TransportFee(option models.TransportOption) (decimal.Decimal, error) {
	fee, ok := transportFees[option]
	if !ok {
		return decimal.Zero, models.NewServiceError(models.ErrInvalidTransportOption, "Invalid transport option").
			WithDetails(map[string]any{"transport": option})
	}
	return fee, nil
}

// ceilDiv - деление с округлением вверх для положительных чисел.
func ceilDiv(a, b int) int {
	return (a-1)/b + 1
}

// BaseCost считает стоимость аренды с учётом тарифа и категории техники.
// Результат округляется до центов, половина в большую сторону.
func BaseCost(totalHours int, baseRate decimal.Decimal, rateType models.RateType, category models.EquipmentCategory) (decimal.Decimal, error) {
	if totalHours <= 0 || !baseRate.IsPositive() {
		return decimal.Zero, models.NewServiceError(models.ErrInvalidCalculationInput, "Hours and rate must be positive").
			WithDetails(map[string]any{"totalHours": totalHours, "baseRate": baseRate.String()})
	}

	multiplier, ok := equipmentMultipliers[category]
	if !ok {
		return decimal.Zero, models.NewServiceError(models.ErrInvalidEquipment, "Invalid equipment category").
			WithDetails(map[string]any{"equipmentCategory": category})
	}

	var units int
	switch rateType {
	case models.HourlyRate:
		units = totalHours
	case models.HalfDayRate:
		units = ceilDiv(totalHours, 4)
	case models.DailyRate:
		units = ceilDiv(totalHours, 8)
	case models.WeeklyRate:
		units = ceilDiv(totalHours, 40)
	default:
		return decimal.Zero, models.NewServiceError(models.ErrInvalidRateType, "Invalid rate type").
			WithDetails(map[string]any{"rateType": rateType})
	}

	cost := baseRate.Mul(decimal.NewFromInt(int64(units))).Mul(multiplier)
	return cost.Round(2), nil
}

// Calculate считает полную смету: часы, базовую стоимость и доставку.
func Calculate(in Input) (*Result, error) {
	hours, err := TotalHours(in.DurationType, in.DurationValue)
	if err != nil {
		return nil, err
	}

	display, err := DurationDisplay(in.DurationType, in.DurationValue)
	if err != nil {
		return nil, err
	}

	baseCost, err := BaseCost(hours, in.BaseRate, in.RateType, in.EquipmentCategory)
	if err != nil {
		return nil, err
	}

	fee, err := TransportFee(in.Transport)
	if err != nil {
		return nil, err
	}

	return &Result{
		TotalHours:      hours,
		BaseCost:        baseCost,
		TransportFee:    fee,
		TotalEstimate:   baseCost.Add(fee),
		DurationDisplay: display,
	}, nil
}

// InputFromRequest собирает параметры расчёта из сохранённой заявки.
func InputFromRequest(sr *models.ServiceRequest) Input {
	return Input{
		DurationType:      sr.DurationType,
		DurationValue:     sr.DurationValue,
		BaseRate:          sr.BaseRate,
		RateType:          sr.RateType,
		Transport:         sr.Transport,
		EquipmentCategory: sr.EquipmentCategory,
	}
}
