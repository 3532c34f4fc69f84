package probe

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/arc-language/buildconf/pkg/core"
)

const (
	openCVCoreProg = "#include <opencv2/core/core.hpp>\nint main(){}\n"

	openCVVersionProg = `#include <opencv2/core/version.hpp>
#include <fstream>
int main(){std::ofstream fh; fh.open("xmipp_test_opencv.txt"); fh << CV_MAJOR_VERSION << std::endl; fh.close();}
`
)

// ConfigureOpenCV detects OpenCV, its major version and whether it was
// built with CUDA support
func (s *Session) ConfigureOpenCV(ctx context.Context) {
	c := s.Config
	defer s.cleanup("xmipp_test_opencv*")

	compile := func(src string) bool {
		if err := s.writeSource("xmipp_test_opencv.cpp", src); err != nil {
			s.Log.Error().Err(err).Msg("cannot write probe source")
			return false
		}
		return s.try(ctx, cmdline(c.CXX, "-c -w", c.CXXFlags, "xmipp_test_opencv.cpp -o xmipp_test_opencv.o", c.IncDirFlags))
	}

	if !compile(openCVCoreProg) {
		s.Out.Yellow("OpenCV not found")
		s.setFlag(core.KeyOpenCV, &c.OpenCV, false)
		s.setFlag(core.KeyOpenCVSupportsCUDA, &c.OpenCVSupportsCUDA, false)
		s.setFlag(core.KeyOpenCV3, &c.OpenCV3, false)
		return
	}
	s.setFlag(core.KeyOpenCV, &c.OpenCV, true)

	version := s.openCVMajor(ctx)
	s.setFlag(core.KeyOpenCV3, &c.OpenCV3, version >= 3)

	prog := "#include <opencv2/core/version.hpp>\n"
	if c.OpenCV3.IsTrue() {
		prog += "#include <opencv2/cudaoptflow.hpp>\n"
	} else {
		prog += "#include <opencv2/core/cuda.hpp>\n"
	}
	prog += "int main(){}\n"
	s.setFlag(core.KeyOpenCVSupportsCUDA, &c.OpenCVSupportsCUDA, compile(prog))

	support := "without"
	if c.OpenCVSupportsCUDA.IsTrue() {
		support = "with"
	}
	s.Out.Green("OPENCV-%d detected %s CUDA support", version, support)
}

// openCVMajor builds and runs a program printing CV_MAJOR_VERSION.
// Any failure reports version 2.
func (s *Session) openCVMajor(ctx context.Context) int {
	c := s.Config
	if err := s.writeSource("xmipp_test_opencv.cpp", openCVVersionProg); err != nil {
		return 2
	}
	if !s.try(ctx, cmdline(c.CXX, "-w", c.CXXFlags, "xmipp_test_opencv.cpp -o xmipp_test_opencv", c.IncDirFlags)) {
		return 2
	}
	s.try(ctx, "./xmipp_test_opencv")

	data, err := os.ReadFile(s.path("xmipp_test_opencv.txt"))
	if err != nil {
		s.Log.Warn().Err(err).Msg("opencv version program wrote nothing")
		return 2
	}
	major, _, _ := strings.Cut(strings.TrimSpace(string(data)), ".")
	v, err := strconv.Atoi(major)
	if err != nil {
		return 2
	}
	return v
}
