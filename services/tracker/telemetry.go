package tracker

import (
	"blogtracker-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("blogtracker.services.tracker")
