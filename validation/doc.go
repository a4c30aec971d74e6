// Package validation checks configuration values.
//
// Struct tags are checked with go-playground/validator. Field names in errors
// follow the mapstructure keys, so a failure reads "model.beam_size: must be
// at least 1" and points at the config file line to fix.
//
//	type ModelConfig struct {
//	    BeamSize int `mapstructure:"beam_size" validate:"gte=1,lte=16"`
//	}
//	err := validation.Validate(cfg)
//
// Checks that span several fields use the collecting Validator:
//
//	v := validation.New()
//	v.Loopback("daemon.addr", cfg.Daemon.Addr)
//	err := v.Validate()
package validation
