package service

import (
	"strings"

	"go-fuelstation-pos/internal/model"
)

// placeholderPlates are what staff type when the plate is unknown. Sales
// carrying one of these are never treated as duplicates of each other.
var placeholderPlates = map[string]struct{}{
	"":        {},
	"-":       {},
	"--":      {},
	"N/A":     {},
	"NA":      {},
	"NONE":    {},
	"ไม่ระบุ": {},
	"ไม่มี":   {},
}

// NormalizePlate trims, collapses inner whitespace and upper-cases Latin letters
// so "1กก 1234" and " 1กก1234" compare equal.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

func IsPlaceholderPlate(plate string) bool {
	_, ok := placeholderPlates[NormalizePlate(plate)]
	return ok
}

// FindDuplicate returns the first existing sale the candidate would duplicate:
// same station, sale date, plate, amount and payment method. Two sales that both
// carry bill identifiers and differ in them are distinct sales. Voided and
// deleted rows never count.
func FindDuplicate(candidate *model.Transaction, existing []model.Transaction) *model.Transaction {
	plate := NormalizePlate(candidate.LicensePlate)
	if IsPlaceholderPlate(plate) {
		return nil
	}
	for i := range existing {
		e := &existing[i]
		if e.IsVoided || e.DeletedAt.Valid {
			continue
		}
		if e.StationID != candidate.StationID ||
			e.SaleDate != candidate.SaleDate ||
			e.PaymentMethod != candidate.PaymentMethod ||
			NormalizePlate(e.LicensePlate) != plate ||
			!e.Amount.Equal(candidate.Amount) {
			continue
		}
		if candidate.HasBill() && e.HasBill() &&
			(candidate.BillBook != e.BillBook || candidate.BillNumber != e.BillNumber) {
			continue
		}
		return e
	}
	return nil
}

// BillCollisions lists live sales that reuse the candidate's bill book and
// number under a different plate. Shared paper bill books make this routine,
// so it only produces a warning.
func BillCollisions(candidate *model.Transaction, sameBill []model.Transaction) []model.Transaction {
	if !candidate.HasBill() {
		return nil
	}
	plate := NormalizePlate(candidate.LicensePlate)
	var out []model.Transaction
	for _, e := range sameBill {
		if e.IsVoided || e.ID == candidate.ID {
			continue
		}
		if e.BillBook == candidate.BillBook && e.BillNumber == candidate.BillNumber &&
			NormalizePlate(e.LicensePlate) != plate {
			out = append(out, e)
		}
	}
	return out
}
