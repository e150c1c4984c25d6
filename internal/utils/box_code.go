package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BoxCodeChars is the base36 alphabet of box codes
const BoxCodeChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// BoxCodeLength is the fixed length of a box code
const BoxCodeLength = 19

// BoxTypeSKU marks codes derived from a catalog SKU
const BoxTypeSKU = "S"

// maxDimensionCM fits two base36 digits with headroom
const maxDimensionCM = 1023

// BoxData is the payload of a box code.
// Format: b LL WW HH MMM T SSSSSSSS
type BoxData struct {
	Length int     // cm
	Width  int     // cm
	Height int     // cm
	Weight float64 // kg, tiered precision
	Type   string
	Serial uint64
}

// DecodeBoxCode parses a code produced by GenerateBoxCode
func DecodeBoxCode(code string) (*BoxData, error) {
	if len(code) != BoxCodeLength || !strings.HasPrefix(code, "b") {
		return nil, errors.New("invalid box code")
	}
	code = strings.ToUpper(code)

	fields := []string{code[1:3], code[3:5], code[5:7], code[7:10], code[11:19]}
	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := base36ToInt(f)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	return &BoxData{
		Length: vals[0],
		Width:  vals[1],
		Height: vals[2],
		Weight: decodeWeight(vals[3]),
		Type:   string(code[10]),
		Serial: uint64(vals[4]),
	}, nil
}

// GenerateBoxCode encodes dimensions, weight, type and serial
func GenerateBoxCode(data BoxData) (string, error) {
	if data.Length < 0 || data.Width < 0 || data.Height < 0 {
		return "", errors.New("dimensions must not be negative")
	}
	if data.Length > maxDimensionCM || data.Width > maxDimensionCM || data.Height > maxDimensionCM {
		return "", errors.New("dimensions too large")
	}
	if data.Type == "" {
		return "", errors.New("box type is required")
	}
	if data.Serial > maxSerial {
		return "", errors.New("serial too large")
	}
	mVal, err := encodeWeight(data.Weight)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("b%s%s%s%s%s%s",
		intToBase36(data.Length, 2),
		intToBase36(data.Width, 2),
		intToBase36(data.Height, 2),
		intToBase36(mVal, 3),
		strings.ToUpper(data.Type[:1]),
		intToBase36(int(data.Serial), 8),
	), nil
}

// SKUBoxCode derives the box code printed on a SKU label. Dimensions are in
// meters and rounded to centimeters; the serial is the hex SKU id.
func SKUBoxCode(id string, length, width, height, weight float64) (string, error) {
	serial, err := strconv.ParseUint(id, 16, 64)
	if err != nil {
		return "", fmt.Errorf("sku id %q is not hex: %w", id, err)
	}
	cm := func(m float64) int { return int(math.Round(m * 100)) }
	return GenerateBoxCode(BoxData{
		Length: cm(length),
		Width:  cm(width),
		Height: cm(height),
		Weight: weight,
		Type:   BoxTypeSKU,
		Serial: serial,
	})
}

// Weight tiers:
// 1: 0-20kg (10g step) -> 0..2000
// 2: 20-1000kg (100g step) -> 2000..11800
// 3: 1000-30000kg (1kg step) -> 11800..40800
const (
	Tier1Limit = 20.0
	Tier1Step  = 0.01
	Tier1Max   = 2000
	Tier2Limit = 1000.0
	Tier2Step  = 0.1
	Tier2Max   = 11800
	Tier3Limit = 30000.0
	Tier3Step  = 1.0
)

// 36^8 - 1
const maxSerial = 2821109907455

func encodeWeight(kg float64) (int, error) {
	if kg < 0 {
		return 0, errors.New("weight must not be negative")
	}
	if kg <= Tier1Limit {
		return int(math.Round(kg / Tier1Step)), nil
	}
	if kg <= Tier2Limit {
		return Tier1Max + int(math.Round((kg-Tier1Limit)/Tier2Step)), nil
	}
	if kg <= Tier3Limit {
		return Tier2Max + int(math.Round((kg-Tier2Limit)/Tier3Step)), nil
	}
	return 0, errors.New("weight too heavy")
}

func decodeWeight(val int) float64 {
	if val <= Tier1Max {
		return float64(val) * Tier1Step
	}
	if val <= Tier2Max {
		return Tier1Limit + float64(val-Tier1Max)*Tier2Step
	}
	return Tier2Limit + float64(val-Tier2Max)*Tier3Step
}

func base36ToInt(chunk string) (int, error) {
	val := 0
	for _, char := range chunk {
		idx := strings.IndexRune(BoxCodeChars, char)
		if idx == -1 {
			return 0, fmt.Errorf("invalid character %q in box code", char)
		}
		val = val*len(BoxCodeChars) + idx
	}
	return val, nil
}

func intToBase36(num, width int) string {
	base := len(BoxCodeChars)
	res := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		res[i] = BoxCodeChars[num%base]
		num /= base
	}
	return string(res)
}
