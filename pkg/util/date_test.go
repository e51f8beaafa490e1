package util

import (
	"math"
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2025-07-12")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2025 || got.Month() != time.July || got.Day() != 12 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestLeadDays(t *testing.T) {
	quote := time.Date(2025, 7, 3, 15, 30, 0, 0, time.UTC)
	stay := time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC)
	if d := LeadDays(quote, stay); d != 9 {
		t.Fatalf("expected 9 lead days, got %d", d)
	}
	if d := LeadDays(stay, quote); d != 0 {
		t.Fatalf("past-dated quote should floor at 0, got %d", d)
	}
}

func TestCyclicalEncodeWrapsAround(t *testing.T) {
	sinDec, cosDec := CyclicalEncode(11, 12)
	sinJan, cosJan := CyclicalEncode(0, 12)
	dist := math.Hypot(sinDec-sinJan, cosDec-cosJan)
	sinJun, cosJun := CyclicalEncode(5, 12)
	far := math.Hypot(sinJun-sinJan, cosJun-cosJan)
	if dist >= far {
		t.Fatalf("december should be closer to january than june: %v >= %v", dist, far)
	}
}
