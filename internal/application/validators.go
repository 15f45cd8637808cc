package application

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var featureCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NewValidator returns a validator with the study-specific rules
// registered, for use on configuration and ingested subjects.
func NewValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return v, nil
}

// registerCustomValidators adds the semver and featurecode tags.
// registerCustomValidators returns an error if any validator registration fails.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	if err := v.RegisterValidation("featurecode", validateFeatureCode); err != nil {
		return fmt.Errorf("failed to register featurecode validator: %w", err)
	}
	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3 && major >= 0 && minor >= 0 && patch >= 0
}

// validateFeatureCode accepts lower-case identifiers such as "rec12", which
// double as subject table column names.
func validateFeatureCode(fl validator.FieldLevel) bool {
	return featureCodePattern.MatchString(fl.Field().String())
}
