package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by record dates.
const DateLayout = "2006-01-02"

// RecordColumns lists the persisted record columns in file order.
var RecordColumns = []string{
	"id",
	"date",
	"vehicleNumber",
	"city",
	"destination",
	"weightInTons",
	"ratePerTon",
	"amountSpend",
	"rateWeFixed",
	"extraSpend",
	"totalProfit",
}

// Record captures one freight transaction.
type Record struct {
	ID            RecordID `json:"id" csv:"id"`
	Date          string   `json:"date" csv:"date"`
	VehicleNumber string   `json:"vehicleNumber" csv:"vehicleNumber"`
	City          string   `json:"city" csv:"city"`
	Destination   string   `json:"destination" csv:"destination"`
	WeightInTons  Amount   `json:"weightInTons" csv:"weightInTons"`
	RatePerTon    Amount   `json:"ratePerTon" csv:"ratePerTon"`
	AmountSpend   Amount   `json:"amountSpend" csv:"amountSpend"`
	RateWeFixed   Amount   `json:"rateWeFixed" csv:"rateWeFixed"`
	ExtraSpend    Amount   `json:"extraSpend" csv:"extraSpend"`
	TotalProfit   Amount   `json:"totalProfit" csv:"totalProfit"`
}

// NewBlankRecord returns a record whose numeric fields are NaN, so that fields
// absent from a decoded payload stay "not a number" instead of zero.
func NewBlankRecord() Record {
	nan := Amount(math.NaN())
	return Record{
		WeightInTons: nan,
		RatePerTon:   nan,
		AmountSpend:  nan,
		RateWeFixed:  nan,
		ExtraSpend:   nan,
		TotalProfit:  nan,
	}
}

// Day parses the leading calendar date of the record.
func (r Record) Day() (time.Time, error) {
	return ParseDay(r.Date)
}

// Row flattens the record in RecordColumns order. NaN amounts become empty cells.
func (r Record) Row() []interface{} {
	return []interface{}{
		r.ID.String(),
		r.Date,
		r.VehicleNumber,
		r.City,
		r.Destination,
		r.WeightInTons.Cell(),
		r.RatePerTon.Cell(),
		r.AmountSpend.Cell(),
		r.RateWeFixed.Cell(),
		r.ExtraSpend.Cell(),
		r.TotalProfit.Cell(),
	}
}

// ParseDay accepts "2006-01-02" as well as longer timestamps starting with it.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) > len(DateLayout) {
		value = value[:len(DateLayout)]
	}
	return time.Parse(DateLayout, value)
}

// RecordID identifies a record. The CSV backend uses integers and the MongoDB
// backend uses ObjectID hex strings; the two are not interchangeable.
type RecordID string

func (id RecordID) String() string { return string(id) }

// IsNumeric reports whether the id is an integer id.
func (id RecordID) IsNumeric() bool {
	_, err := strconv.Atoi(string(id))
	return err == nil
}

// MarshalJSON emits integer ids as JSON numbers and anything else as a string.
func (id RecordID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.Atoi(string(id)); err == nil {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts either a number or a string.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = RecordID(n.String())
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (id RecordID) MarshalCSV() (string, error) { return string(id), nil }

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (id *RecordID) UnmarshalCSV(value string) error {
	*id = RecordID(strings.TrimSpace(value))
	return nil
}

// Amount is a decimal record value. Non-numeric input is carried as NaN.
type Amount float64

// ParseAmount parses a decimal, returning NaN for anything that is not a number.
func ParseAmount(value string) Amount {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return Amount(math.NaN())
	}
	return Amount(f)
}

// Float returns the raw value.
func (a Amount) Float() float64 { return float64(a) }

// IsNaN reports whether the amount holds no usable number.
func (a Amount) IsNaN() bool { return math.IsNaN(float64(a)) }

// OrZero returns the value, or 0 for NaN and infinities.
func (a Amount) OrZero() float64 {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Cell returns the value for spreadsheet output.
func (a Amount) Cell() interface{} {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return f
}

func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

// MarshalJSON writes NaN and infinities as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts numbers and numeric strings; everything else is NaN.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = ParseAmount(s)
		return nil
	}
	*a = ParseAmount(string(data))
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (a Amount) MarshalCSV() (string, error) {
	return a.String(), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (a *Amount) UnmarshalCSV(value string) error {
	*a = ParseAmount(value)
	return nil
}
