package tracking

// TuningParams holds the real-time adjustable estimator thresholds.
// These can be modified via the tuning API without restarting the rig.
type TuningParams struct {
	// Dead-band
	CheckDeltaNear float64 `json:"check_delta_near"` // Threshold at the origin (m)
	CheckDeltaFar  float64 `json:"check_delta_far"`  // Threshold at CheckDeltaSpan (m)
	CheckDeltaSpan float64 `json:"check_delta_span"` // Widening distance (m)

	// Discontinuity
	SnapThreshold float64 `json:"snap_threshold"` // Head jump treated as a teleport (m)

	// Posture
	UprightThreshold float64 `json:"upright_threshold"` // dot(up, playerUp) cut-off
}

// GetTuningParams returns current tuning parameters. Safe from any goroutine.
func (t *Tracker) GetTuningParams() TuningParams {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return TuningParams{
		CheckDeltaNear:   t.config.CheckDeltaNear,
		CheckDeltaFar:    t.config.CheckDeltaFar,
		CheckDeltaSpan:   t.config.CheckDeltaSpan,
		SnapThreshold:    t.config.SnapThreshold,
		UprightThreshold: t.config.UprightThreshold,
	}
}

// SetTuningParams updates thresholds at runtime.
// Zero fields are left unchanged. Every other value is applied, so a negative
// upright cut-off tilts the posture test and a negative band fails
// validation; on any error nothing changes. The carried scale state is kept.
// Call it on the tick goroutine (see Submit).
func (t *Tracker) SetTuningParams(params TuningParams) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cfg := t.config
	if params.CheckDeltaNear != 0 {
		cfg.CheckDeltaNear = params.CheckDeltaNear
	}
	if params.CheckDeltaFar != 0 {
		cfg.CheckDeltaFar = params.CheckDeltaFar
	}
	if params.CheckDeltaSpan != 0 {
		cfg.CheckDeltaSpan = params.CheckDeltaSpan
	}
	if params.SnapThreshold != 0 {
		cfg.SnapThreshold = params.SnapThreshold
	}
	if params.UprightThreshold != 0 {
		cfg.UprightThreshold = params.UprightThreshold
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	t.config = cfg
	t.estimator.setConfig(cfg)
	t.logger.Info("tuning updated",
		"check_delta_near", cfg.CheckDeltaNear,
		"check_delta_far", cfg.CheckDeltaFar,
		"snap_threshold", cfg.SnapThreshold,
		"upright_threshold", cfg.UprightThreshold)
	return nil
}
