package http

import (
	"time"

	xutil "RateCast/pkg/util"
)

// Thin re-exports so handlers can parse query parameters without a
// second util import.

func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

func ParseTime(s string) (time.Time, bool) { return xutil.ParseTime(s) }

func ParseTimeDefault(s string, def time.Time) time.Time { return xutil.ParseTimeDefault(s, def) }
