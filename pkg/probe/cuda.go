package probe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/env"
	"github.com/arc-language/buildconf/pkg/shell"
)

// cudaLibDirs are checked for libcudart.so below a toolkit root
var cudaLibDirs = []string{"lib", "lib64", "targets/x86_64-linux/lib", "lib/x86_64-linux-gnu"}

var recommendedCUDA = Version{10, 2}

// ConfigureCUDA finds nvcc and derives NVCC, CXX_CUDA, NVCC_CXXFLAGS and
// NVCC_LINKFLAGS. CUDA ends up False when no usable toolkit or host
// compiler exists.
func (s *Session) ConfigureCUDA(ctx context.Context) error {
	c := s.Config
	nvcc := "nvcc"

	if c.CUDA.IsUnset() {
		if dir := s.findNVCC(); dir != "" {
			s.setFlag(core.KeyCUDA, &c.CUDA, true)
			nvcc = filepath.Join(dir, "nvcc")
		} else {
			s.setFlag(core.KeyCUDA, &c.CUDA, false)
		}
	}
	s.Env.Update(env.Begin, true, "CUDA", c.CUDA.IsTrue())
	if !c.CUDA.IsTrue() {
		return ctx.Err()
	}

	if c.NVCC == "" {
		if !s.checkProgram(nvcc) {
			s.Out.Yellow("Warning: 'nvcc' not found. 'NVCC_CXXFLAGS' and 'NVCC_LINKFLAGS' cannot be " +
				"automatically set. Please, manual set them or set 'CUDA=False' in the config file.")
			return ctx.Err()
		}
		v, full, err := s.CUDAVersion(ctx, nvcc)
		if err != nil {
			s.Out.Yellow("Warning: cannot read the version of '%s': %v", nvcc, err)
			return ctx.Err()
		}
		s.Out.Green("CUDA-%s detected.", full)
		if v != recommendedCUDA {
			s.Out.Yellow("CUDA-%s is recommended.", recommendedCUDA)
		}
		s.assign(core.KeyNVCC, &c.NVCC, nvcc)
	}

	if c.NVCCCXXFlags == "" {
		if !s.configureNVCCFlags(ctx) {
			return ctx.Err()
		}
	}

	if c.NVCCLinkFlags == "" {
		s.configureCUDALibs()
	}
	return ctx.Err()
}

// findNVCC returns the real directory of nvcc, or "" when there is none
func (s *Session) findNVCC() string {
	cudaBin := s.Getenv("XMIPP_CUDA_BIN")
	if cudaBin == "" {
		cudaBin = s.Getenv("CUDA_BIN")
	}
	var search []string
	for _, p := range []string{cudaBin, s.Getenv("PATH")} {
		if p != "" {
			search = append(search, p)
		}
	}
	if dir := shell.WhereIs(s.Getenv, "nvcc", true, strings.Join(search, ":")); dir != "" {
		return dir
	}

	s.Out.Yellow("'nvcc' not found in the PATH (either in CUDA_BIN/XMIPP_CUDA_BIN)")
	dir := shell.FindFileInDirs("nvcc", s.Search.CUDABins...)
	dir = s.Prompt.AskPath(dir, s.Ask)
	if dir == "" || !shell.IsFile(filepath.Join(dir, "nvcc")) {
		s.Out.Yellow("CUDA not found. Continuing only with CPU integration.")
		return ""
	}
	// a generic /usr/local/cuda link hides the version
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		dir = real
	}
	return dir
}

// configureNVCCFlags picks a host compiler when needed and sets
// NVCC_CXXFLAGS. It returns false after demoting CUDA.
func (s *Session) configureNVCCFlags(ctx context.Context) bool {
	c := s.Config

	v, _, err := s.CUDAVersion(ctx, c.NVCC)
	if err != nil {
		s.Out.Yellow("Warning: cannot read the version of '%s': %v", c.NVCC, err)
		return false
	}

	if c.CXXCUDA == "" {
		s.Out.Yellow("Checking for compatible GCC to be used with your CUDA")
		for _, candidate := range CompatibleGCC(v) {
			if p := "g++-" + candidate; s.checkProgram(p) {
				s.assign(core.KeyCXXCUDA, &c.CXXCUDA, p)
				break
			}
		}
		if c.CXXCUDA != "" {
			s.assign(core.KeyCXXCUDA, &c.CXXCUDA, s.Prompt.AskPath(c.CXXCUDA, s.Ask))
		}
		if !s.checkProgram(c.CXXCUDA) {
			s.Out.Red("No valid compiler found. Skipping CUDA compilation.\n" +
				"To manually set the compiler, export CXX_CUDA=/path/to/requested_compiler' and " +
				"run again 'xmipp config'.")
			if s.Config.IsPreset(core.KeyCUDA) {
				s.Out.Yellow("Ignoring CUDA=%s from the environment for this run.", c.CUDA)
			}
			// a compatibility failure disables CUDA even over a preset
			c.CUDA = core.FlagFalse
			s.Env.Update(env.Replace, true, "CUDA", false)
			return false
		}
	}

	s.assign(core.KeyNVCCCXXFlags, &c.NVCCCXXFlags, NVCCFlags(v, c.CXXCUDA))
	return true
}

func hasCUDART(dir string) bool {
	return dir != "" && shell.IsFile(filepath.Join(dir, "libcudart.so"))
}

// searchCUDALib looks for libcudart.so below root, keeping current
// when nothing is found
func (s *Session) searchCUDALib(root, current string, ask bool) string {
	for _, sub := range cudaLibDirs {
		candidate := filepath.Join(root, sub)
		if !hasCUDART(candidate) {
			continue
		}
		if real, err := filepath.EvalSymlinks(candidate); err == nil {
			candidate = real
		}
		return s.Prompt.AskPath(candidate, ask)
	}
	return current
}

func (s *Session) configureCUDALibs() {
	c := s.Config

	cudaLib := s.Getenv("XMIPP_CUDA_LIB")
	if cudaLib == "" {
		cudaLib = s.Getenv("CUDA_LIB")
	}

	if nvccDir := shell.WhereIs(s.Getenv, c.NVCC, false, ""); !hasCUDART(cudaLib) && nvccDir != "" {
		cudaLib = s.searchCUDALib(filepath.Dir(nvccDir), cudaLib, false)
	}
	if !hasCUDART(cudaLib) {
		cudaLib = s.searchCUDALib(s.Search.CUDARoot, cudaLib, s.Ask)
	}

	if !hasCUDART(cudaLib) {
		s.Out.Yellow("WARNING: system libraries for CUDA not found!\n"+
			"         If cuda code is not compiling, please, find 'libcudart.so' and manually add\n"+
			"         the containing folder (e.g. '/my/cuda/lib') at %s\n"+
			" > NVCC_LINKFLAGS = -L/my/cuda/lib -L/my/cuda/lib/stubs\n"+
			"         If the problem persist, set 'CUDA=False' before compiling to skip cuda compilation.",
			core.DefaultConfigFile)
		return
	}

	// nvidia-ml lives in stubs
	stubs := filepath.Join(cudaLib, "stubs")
	s.assign(core.KeyNVCCLinkFlags, &c.NVCCLinkFlags, fmt.Sprintf("-L%s -L%s", cudaLib, stubs))
	s.Env.Update(env.Begin, true, "LD_LIBRARY_PATH", cudaLib)
	s.Env.Update(env.Begin, true, "LD_LIBRARY_PATH", stubs)
}
