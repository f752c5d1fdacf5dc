package catalog

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/platinummonkey/auval/pkg/native"
	"github.com/platinummonkey/auval/pkg/simulator"
	"gopkg.in/yaml.v3"
)

var versionRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)(?:\.(\d+))?$`)

// Version is a packed component version. Manifests write it as
// "major.minor.bugfix" or as a plain integer.
type Version int32

// UnmarshalYAML accepts dotted and integer versions
func (v *Version) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: version must be a scalar", node.Line)
	}
	if m := versionRegex.FindStringSubmatch(node.Value); m != nil {
		major, _ := strconv.Atoi(m[1])
		minor, _ := strconv.Atoi(m[2])
		bugfix := 0
		if m[3] != "" {
			bugfix, _ = strconv.Atoi(m[3])
		}
		if major > 0x7fff || minor > 0xff || bugfix > 0xff {
			return fmt.Errorf("line %d: version %q out of range", node.Line, node.Value)
		}
		*v = Version(major<<16 | minor<<8 | bugfix)
		return nil
	}
	n, err := strconv.ParseInt(node.Value, 0, 32)
	if err != nil {
		return fmt.Errorf("line %d: invalid version %q", node.Line, node.Value)
	}
	*v = Version(n)
	return nil
}

func (v Version) String() string {
	if v < 0 {
		return strconv.Itoa(int(v))
	}
	return fmt.Sprintf("%d.%d.%d", v>>16, (v>>8)&0xff, v&0xff)
}

// Manifest describes one simulated component
type Manifest struct {
	Type         native.OSType `yaml:"type"`
	Subtype      native.OSType `yaml:"subtype"`
	Manufacturer native.OSType `yaml:"manufacturer"`
	Name         string        `yaml:"name"`
	Version      Version       `yaml:"version"`

	Buses             BusManifest        `yaml:"buses"`
	Parameters        []ParameterEntry   `yaml:"parameters"`
	Presets           []PresetEntry      `yaml:"presets"`
	LegacyPresetOnly  bool               `yaml:"legacy_preset_only"`
	SupportedChannels []ChannelEntry     `yaml:"supported_channels"`
	Layouts           []string           `yaml:"layouts"`
	Latency           float64            `yaml:"latency"`
	TailTime          *float64           `yaml:"tail_time"`
	Views             []IdentityEntry    `yaml:"views"`
	Cocoa             *CocoaEntry        `yaml:"cocoa"`
	CanBypass         bool               `yaml:"can_bypass"`
	HostCallbacks     bool               `yaml:"host_callbacks"`
	State             map[string]string  `yaml:"state"`
	VariableSizeState bool               `yaml:"variable_size_state"`
	Replaces          []ReplacementEntry `yaml:"replaces"`
	Faults            FaultManifest      `yaml:"faults"`
}

// BusManifest sets bus counts and formats. Zero values take the defaults.
type BusManifest struct {
	Inputs     uint32  `yaml:"inputs"`
	Outputs    uint32  `yaml:"outputs"`
	Channels   uint32  `yaml:"channels"`
	SampleRate float64 `yaml:"sample_rate"`
	Writable   bool    `yaml:"writable"`
	Named      bool    `yaml:"named"`
}

type ParameterEntry struct {
	ID      uint32   `yaml:"id"`
	Name    string   `yaml:"name"`
	Indexed bool     `yaml:"indexed"`
	Min     float32  `yaml:"min"`
	Max     float32  `yaml:"max"`
	Default float32  `yaml:"default"`
	CanRamp bool     `yaml:"can_ramp"`
	Values  []string `yaml:"values"`
}

type PresetEntry struct {
	Number int32  `yaml:"number"`
	Name   string `yaml:"name"`
}

type ChannelEntry struct {
	In  int16 `yaml:"in"`
	Out int16 `yaml:"out"`
}

type IdentityEntry struct {
	Type         native.OSType `yaml:"type"`
	Subtype      native.OSType `yaml:"subtype"`
	Manufacturer native.OSType `yaml:"manufacturer"`
}

type CocoaEntry struct {
	Bundle  string   `yaml:"bundle"`
	Classes []string `yaml:"classes"`
}

// ReplacementEntry is a prior-format plugin this component migrates from
type ReplacementEntry struct {
	Format       string             `yaml:"format"`
	Type         native.OSType      `yaml:"type"`
	Subtype      native.OSType      `yaml:"subtype"`
	Manufacturer native.OSType      `yaml:"manufacturer"`
	Translations []TranslationEntry `yaml:"translations"`
}

type TranslationEntry struct {
	From  uint32  `yaml:"from"`
	To    uint32  `yaml:"to"`
	Scale float32 `yaml:"scale"`
}

// FaultManifest injects failures. Codes are native status codes.
type FaultManifest struct {
	Instantiate       native.Code `yaml:"instantiate"`
	Initialize        native.Code `yaml:"initialize"`
	Unauthorized      bool        `yaml:"unauthorized"`
	RequireInit       []string    `yaml:"require_init"`
	Render            native.Code `yaml:"render"`
	Schedule          native.Code `yaml:"schedule"`
	PanicOnRender     bool        `yaml:"panic_on_render"`
	PanicOnInitialize bool        `yaml:"panic_on_initialize"`
}

// ValidationError is one problem found in a manifest
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var layoutNames = map[string]native.ChannelLayoutTag{
	"mono":         native.LayoutTagMono,
	"stereo":       native.LayoutTagStereo,
	"quadraphonic": native.LayoutTagQuadraphonic,
}

var formatNames = map[string]uint32{
	"mas": native.OtherPluginFormatMAS,
	"vst": native.OtherPluginFormatVST,
	"au":  native.OtherPluginFormatAU,
}

// LoadManifest loads and parses a component manifest from a file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}

// Identity returns the identity the manifest declares
func (m *Manifest) Identity() native.Identity {
	return native.Identity{Type: m.Type, Subtype: m.Subtype, Manufacturer: m.Manufacturer}
}

// Description returns the catalog description of the manifest
func (m *Manifest) Description() native.Description {
	return native.Description{Identity: m.Identity(), Name: m.Name, Version: int32(m.Version)}
}

// ValidateManifest performs basic validation on a manifest
func ValidateManifest(m *Manifest) []ValidationError {
	var errors []ValidationError

	// Required fields
	if m.Type == 0 {
		errors = append(errors, ValidationError{Field: "type", Message: "Component type is required"})
	}
	if m.Subtype == 0 {
		errors = append(errors, ValidationError{Field: "subtype", Message: "Component subtype is required"})
	}
	if m.Manufacturer == 0 {
		errors = append(errors, ValidationError{Field: "manufacturer", Message: "Manufacturer is required"})
	}
	if m.Name == "" {
		errors = append(errors, ValidationError{Field: "name", Message: "Component name is required"})
	}

	seen := map[uint32]bool{}
	for i, p := range m.Parameters {
		field := fmt.Sprintf("parameters[%d]", i)
		if seen[p.ID] {
			errors = append(errors, ValidationError{Field: field, Message: fmt.Sprintf("Duplicate parameter id %d", p.ID)})
		}
		seen[p.ID] = true
		if p.Min > p.Max {
			errors = append(errors, ValidationError{Field: field, Message: "min is greater than max"})
		}
	}

	for i, name := range m.Layouts {
		if _, ok := layoutNames[name]; !ok {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("layouts[%d]", i), Message: fmt.Sprintf("Unknown layout %q", name)})
		}
	}
	for i, r := range m.Replaces {
		if _, ok := formatNames[r.Format]; !ok {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("replaces[%d].format", i), Message: fmt.Sprintf("Unknown plugin format %q", r.Format)})
		}
	}
	for i, name := range m.Faults.RequireInit {
		if _, ok := native.ParsePropertyKey(name); !ok {
			errors = append(errors, ValidationError{Field: fmt.Sprintf("faults.require_init[%d]", i), Message: fmt.Sprintf("Unknown property %q", name)})
		}
	}
	return errors
}

// Spec converts a validated manifest to a simulated component
func (m *Manifest) Spec() (*simulator.Spec, error) {
	if errs := ValidateManifest(m); len(errs) > 0 {
		return nil, fmt.Errorf("manifest validation failed: %v", errs)
	}

	spec := &simulator.Spec{
		Identity:              m.Identity(),
		Name:                  m.Name,
		Version:               int32(m.Version),
		InputBuses:            m.Buses.Inputs,
		OutputBuses:           m.Buses.Outputs,
		Channels:              m.Buses.Channels,
		SampleRate:            m.Buses.SampleRate,
		BusCountWritable:      m.Buses.Writable,
		NamedBuses:            m.Buses.Named,
		LegacyPresetOnly:      m.LegacyPresetOnly,
		Latency:               m.Latency,
		TailTime:              m.TailTime,
		CanBypass:             m.CanBypass,
		UsesHostCallbacks:     m.HostCallbacks,
		ClassInfoVariableSize: m.VariableSizeState,
		Faults: simulator.Faults{
			InstantiateCode:   m.Faults.Instantiate,
			InitializeCode:    m.Faults.Initialize,
			Unauthorized:      m.Faults.Unauthorized,
			RenderCode:        m.Faults.Render,
			ScheduleCode:      m.Faults.Schedule,
			PanicOnRender:     m.Faults.PanicOnRender,
			PanicOnInitialize: m.Faults.PanicOnInitialize,
		},
	}
	for _, p := range m.Parameters {
		info := native.ParameterInfo{
			Name:         p.Name,
			MinValue:     p.Min,
			MaxValue:     p.Max,
			DefaultValue: p.Default,
			Flags:        native.ParameterFlagIsReadable | native.ParameterFlagIsWritable,
		}
		if p.Indexed {
			info.Unit = native.UnitIndexed
		}
		if p.CanRamp {
			info.Flags |= native.ParameterFlagCanRamp
		}
		spec.Parameters = append(spec.Parameters, simulator.Parameter{
			ID:           native.ParameterID(p.ID),
			Info:         info,
			ValueStrings: p.Values,
		})
	}

	for _, p := range m.Presets {
		spec.Presets = append(spec.Presets, native.Preset{Number: p.Number, Name: p.Name})
	}
	for _, c := range m.SupportedChannels {
		spec.SupportedNumChannels = append(spec.SupportedNumChannels, native.ChannelInfo{InChannels: c.In, OutChannels: c.Out})
	}
	for _, name := range m.Layouts {
		spec.LayoutTags = append(spec.LayoutTags, layoutNames[name])
	}
	for _, v := range m.Views {
		spec.Views = append(spec.Views, native.Identity{Type: v.Type, Subtype: v.Subtype, Manufacturer: v.Manufacturer})
	}
	if m.Cocoa != nil {
		spec.Cocoa = &native.CocoaViewInfo{BundleLocation: m.Cocoa.Bundle, Classes: m.Cocoa.Classes}
	}

	keys := make([]string, 0, len(m.State))
	for k := range m.State {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		spec.ClassInfo.Entries = append(spec.ClassInfo.Entries, native.StateEntry{
			Key:   k,
			Value: native.StateValue{Kind: native.StateString, String: m.State[k]},
		})
	}

	for _, r := range m.Replaces {
		desc := native.OtherPluginDesc{
			Format:       formatNames[r.Format],
			Type:         r.Type,
			Subtype:      r.Subtype,
			Manufacturer: r.Manufacturer,
		}
		spec.Replaces = append(spec.Replaces, desc)
		for _, t := range r.Translations {
			spec.Translations = append(spec.Translations, simulator.Translation{
				From:         desc,
				OtherParamID: t.From,
				ParamID:      t.To,
				Scale:        t.Scale,
			})
		}
	}

	for _, name := range m.Faults.RequireInit {
		key, _ := native.ParsePropertyKey(name)
		spec.Faults.RequireInit = append(spec.Faults.RequireInit, key)
	}
	return spec, nil
}
