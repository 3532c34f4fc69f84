// pkg/core/config.go
package core

import (
	"fmt"
	"sort"
	"strings"
)

// Config holds every xmipp.conf value. Booleans are Flags and only
// become "True"/"False" strings when persisted.
type Config struct {
	BuildTests           string
	CC                   string
	CXX                  string
	LinkerForPrograms    string
	IncDirFlags          string
	LibDirFlags          string
	CCFlags              string
	CXXFlags             string
	LinkFlags            string
	PythonIncFlags       string
	MPICC                string
	MPICXX               string
	MPIRun               string
	MPILinkerForPrograms string
	MPICXXFlags          string
	MPILinkFlags         string
	NVCC                 string
	CXXCUDA              string
	NVCCCXXFlags         string
	NVCCLinkFlags        string
	MatlabDir            string
	CUDA                 Flag
	Debug                Flag
	Matlab               string
	OpenCV               Flag
	OpenCVSupportsCUDA   Flag
	OpenCV3              Flag
	JavaHome             string
	JavaBinDir           string
	JavaC                string
	Jar                  string
	JNICPPPath           string
	StarPU               string
	StarPUHome           string
	StarPUInclude        string
	StarPULib            string
	StarPULibrary        string
	UseDL                string
	Verified             Flag
	ConfigVersion        string
	PythonLib            string

	extra  map[string]string
	preset map[string]bool
}

// binding ties a key to exactly one of its typed fields
type binding struct {
	str  *string
	flag *Flag
}

func (c *Config) bindings() map[string]binding {
	return map[string]binding{
		KeyBuildTests:           {str: &c.BuildTests},
		KeyCC:                   {str: &c.CC},
		KeyCXX:                  {str: &c.CXX},
		KeyLinkerForPrograms:    {str: &c.LinkerForPrograms},
		KeyIncDirFlags:          {str: &c.IncDirFlags},
		KeyLibDirFlags:          {str: &c.LibDirFlags},
		KeyCCFlags:              {str: &c.CCFlags},
		KeyCXXFlags:             {str: &c.CXXFlags},
		KeyLinkFlags:            {str: &c.LinkFlags},
		KeyPythonIncFlags:       {str: &c.PythonIncFlags},
		KeyMPICC:                {str: &c.MPICC},
		KeyMPICXX:               {str: &c.MPICXX},
		KeyMPIRun:               {str: &c.MPIRun},
		KeyMPILinkerForPrograms: {str: &c.MPILinkerForPrograms},
		KeyMPICXXFlags:          {str: &c.MPICXXFlags},
		KeyMPILinkFlags:         {str: &c.MPILinkFlags},
		KeyNVCC:                 {str: &c.NVCC},
		KeyCXXCUDA:              {str: &c.CXXCUDA},
		KeyNVCCCXXFlags:         {str: &c.NVCCCXXFlags},
		KeyNVCCLinkFlags:        {str: &c.NVCCLinkFlags},
		KeyMatlabDir:            {str: &c.MatlabDir},
		KeyCUDA:                 {flag: &c.CUDA},
		KeyDebug:                {flag: &c.Debug},
		KeyMatlab:               {str: &c.Matlab},
		KeyOpenCV:               {flag: &c.OpenCV},
		KeyOpenCVSupportsCUDA:   {flag: &c.OpenCVSupportsCUDA},
		KeyOpenCV3:              {flag: &c.OpenCV3},
		KeyJavaHome:             {str: &c.JavaHome},
		KeyJavaBinDir:           {str: &c.JavaBinDir},
		KeyJavaC:                {str: &c.JavaC},
		KeyJar:                  {str: &c.Jar},
		KeyJNICPPPath:           {str: &c.JNICPPPath},
		KeyStarPU:               {str: &c.StarPU},
		KeyStarPUHome:           {str: &c.StarPUHome},
		KeyStarPUInclude:        {str: &c.StarPUInclude},
		KeyStarPULib:            {str: &c.StarPULib},
		KeyStarPULibrary:        {str: &c.StarPULibrary},
		KeyUseDL:                {str: &c.UseDL},
		KeyVerified:             {flag: &c.Verified},
		KeyConfigVersion:        {str: &c.ConfigVersion},
		KeyPythonLib:            {str: &c.PythonLib},
	}
}

// NewConfig returns a config with every key empty
func NewConfig() *Config {
	return &Config{
		extra:  make(map[string]string),
		preset: make(map[string]bool),
	}
}

// FromEnv seeds every recognized key from the identically named
// variable. Non-empty values are marked as preset.
func FromEnv(getenv func(string) string) *Config {
	c := NewConfig()
	for _, key := range RecognizedKeys {
		v := getenv(key)
		if v == "" {
			continue
		}
		// recognized keys never fail
		_ = c.Set(key, v)
		c.preset[key] = true
	}
	return c
}

// Get returns the persisted form of key
func (c *Config) Get(key string) (string, bool) {
	if b, ok := c.bindings()[key]; ok {
		if b.flag != nil {
			return b.flag.String(), true
		}
		return *b.str, true
	}
	v, ok := c.extra[key]
	return v, ok
}

// Value is Get without the presence flag
func (c *Config) Value(key string) string {
	v, _ := c.Get(key)
	return v
}

// Set parses value into the field for key
func (c *Config) Set(key, value string) error {
	b, ok := c.bindings()[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if b.flag != nil {
		*b.flag = ParseFlag(value)
	} else {
		*b.str = value
	}
	return nil
}

// IsPreset reports whether key came from the process environment
func (c *Config) IsPreset(key string) bool {
	return c.preset[key]
}

// PresetKeys returns the preset keys, sorted
func (c *Config) PresetKeys() []string {
	keys := make([]string, 0, len(c.preset))
	for k := range c.preset {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns every recognized key plus any extra keys read from a file
func (c *Config) Map() map[string]string {
	m := make(map[string]string, len(RecognizedKeys)+len(c.extra))
	for k, v := range c.extra {
		m[k] = v
	}
	for _, k := range RecognizedKeys {
		m[k] = c.Value(k)
	}
	return m
}

// Keys returns all keys of Map in sorted order
func (c *Config) Keys() []string {
	m := c.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load replaces every value with the ones in values. Recognized keys
// missing from values become empty. Preset marks are kept.
func (c *Config) Load(values map[string]string) {
	preset := c.preset
	*c = *NewConfig()
	if preset != nil {
		c.preset = preset
	}
	for k, v := range values {
		if IsRecognized(k) {
			_ = c.Set(k, v)
			continue
		}
		c.extra[k] = v
	}
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	out := *c
	out.extra = make(map[string]string, len(c.extra))
	for k, v := range c.extra {
		out.extra[k] = v
	}
	out.preset = make(map[string]bool, len(c.preset))
	for k, v := range c.preset {
		out.preset[k] = v
	}
	return &out
}

// AppendFlags joins flags onto the current value of a string key with
// single spaces
func AppendFlags(current string, flags ...string) string {
	parts := strings.Fields(current)
	for _, f := range flags {
		parts = append(parts, strings.Fields(f)...)
	}
	return strings.Join(parts, " ")
}
