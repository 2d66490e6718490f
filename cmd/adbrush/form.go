package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"adbrush/internal/domain"
)

var errFormDeclined = errors.New("run canceled")

// collectRunForm asks for the run settings that no flag provided.
func collectRunForm(cmd *cobra.Command, profile *domain.Profile) error {
	inputs := newFormInputs(*profile)
	builder := newFormBuilder(cmd)
	inputs.register(builder)
	if err := builder.build().Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return exitSilent(exitCodeGeneric)
		}
		return fmt.Errorf("form canceled or error: %w", err)
	}
	if !inputs.confirmed {
		return exitError{code: exitCodeGeneric, message: errFormDeclined.Error()}
	}
	return inputs.apply(cmd, profile)
}

type formInputs struct {
	x               string
	y               string
	threads         string
	minDelay        string
	maxDelay        string
	refreshInterval string
	confirmed       bool
}

// newFormInputs pre-fills the form from the current profile.
func newFormInputs(profile domain.Profile) *formInputs {
	inputs := &formInputs{
		threads:   strconv.Itoa(profile.Dispatch.Threads),
		minDelay:  profile.Dispatch.MinDelay.String(),
		maxDelay:  profile.Dispatch.MaxDelay.String(),
		confirmed: true,
	}
	if profile.Target.XSet {
		inputs.x = strconv.Itoa(profile.Target.X)
	}
	if profile.Target.YSet {
		inputs.y = strconv.Itoa(profile.Target.Y)
	}
	if profile.Dispatch.RefreshEnabled() {
		inputs.refreshInterval = profile.Dispatch.RefreshInterval.String()
	}
	return inputs
}

// register wires the interactive fields into the provided builder.
func (fi *formInputs) register(builder *formBuilder) {
	if !builder.changed("preset") {
		builder.addField("x", func() huh.Field {
			return numericInput("Tap X", "540", "Horizontal pixel of the button", &fi.x, 0, 100000, false)
		})
		builder.addField("y", func() huh.Field {
			return numericInput("Tap Y", "1800", "Vertical pixel of the button", &fi.y, 0, 100000, false)
		})
	}
	builder.addField("threads", func() huh.Field {
		return numericInput("Workers", "5", "Concurrent tap workers (1-64)", &fi.threads, 1, 64, false)
	})
	builder.addField("min-delay", func() huh.Field {
		return durationInput("Minimum Delay", "10ms", "Shortest pause between taps per worker", &fi.minDelay)
	})
	builder.addField("max-delay", func() huh.Field {
		return durationInput("Maximum Delay", "50ms", "Longest pause between taps per worker", &fi.maxDelay)
	})
	builder.addField("refresh-interval", func() huh.Field {
		return durationInput("Refresh Interval (optional)", "0", "Pull-to-refresh period, empty or 0 disables", &fi.refreshInterval)
	})
	builder.addConfirmField("Start tapping?", "Press Ctrl-C at any time to stop", &fi.confirmed)
}

// apply writes collected values into profile, skipping flags set on the command line.
func (fi *formInputs) apply(cmd *cobra.Command, profile *domain.Profile) error {
	var errs []error
	applyIntInput(cmd, "x", fi.x, &errs, profile.Target.SetX)
	applyIntInput(cmd, "y", fi.y, &errs, profile.Target.SetY)
	applyIntInput(cmd, "threads", fi.threads, &errs, func(val int) { profile.Dispatch.Threads = val })
	applyDurationInput(cmd, "min-delay", fi.minDelay, &errs, func(val time.Duration) { profile.Dispatch.MinDelay = val })
	applyDurationInput(cmd, "max-delay", fi.maxDelay, &errs, func(val time.Duration) { profile.Dispatch.MaxDelay = val })
	applyDurationInput(cmd, "refresh-interval", fi.refreshInterval, &errs, func(val time.Duration) {
		profile.Dispatch.RefreshInterval = val
	})
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

type formBuilder struct {
	cmd    *cobra.Command
	fields []huh.Field
}

func newFormBuilder(cmd *cobra.Command) *formBuilder {
	return &formBuilder{cmd: cmd}
}

// build assembles the final form with the configured fields.
func (fb *formBuilder) build() *huh.Form {
	return huh.NewForm(huh.NewGroup(fb.fields...)).WithTheme(huh.ThemeCharm())
}

func (fb *formBuilder) changed(flag string) bool {
	f := fb.cmd.Flags().Lookup(flag)
	return f != nil && f.Changed
}

func (fb *formBuilder) addField(flag string, build func() huh.Field) {
	if fb.changed(flag) {
		return
	}
	field := build()
	if field != nil {
		fb.fields = append(fb.fields, field)
	}
}

func (fb *formBuilder) addConfirmField(title, description string, target *bool) {
	fb.fields = append(fb.fields, huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Start").
		Negative("Cancel").
		Value(target))
}

func numericInput(
	title string,
	placeholder string,
	description string,
	target *string,
	minVal int,
	maxVal int,
	allowEmpty bool,
) huh.Field {
	return huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Description(description).
		Value(target).
		Validate(func(str string) error {
			if str == "" {
				if allowEmpty {
					return nil
				}
				return errors.New("value is required")
			}
			val, err := strconv.Atoi(str)
			if err != nil {
				return errors.New("must be a number")
			}
			if val < minVal || val > maxVal {
				return fmt.Errorf("must be between %d and %d", minVal, maxVal)
			}
			return nil
		})
}

func durationInput(title, placeholder, description string, target *string) huh.Field {
	return huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Description(description).
		Value(target).
		Validate(func(str string) error {
			if str == "" {
				return nil
			}
			if _, err := parseDurationInput(str); err != nil {
				return errors.New("invalid duration format (e.g., 10ms, 1.5s)")
			}
			return nil
		})
}

// parseDurationInput accepts Go durations and bare numbers as milliseconds.
func parseDurationInput(value string) (time.Duration, error) {
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}

func applyIntInput(cmd *cobra.Command, flagName, value string, errs *[]error, setter func(int)) {
	if cmd.Flags().Changed(flagName) || value == "" {
		return
	}
	val, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", flagName, err))
		return
	}
	setter(val)
}

func applyDurationInput(cmd *cobra.Command, flagName, value string, errs *[]error, setter func(time.Duration)) {
	if cmd.Flags().Changed(flagName) || value == "" {
		return
	}
	val, err := parseDurationInput(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", flagName, err))
		return
	}
	setter(val)
}
