package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/arc-language/buildconf/pkg/env"
)

const compilerTestProg = `
#include <fftw3.h>
#include <hdf5.h>
#include <tiffio.h>
#include <jpeglib.h>
#include <sqlite3.h>
#include <pthread.h>
#include <Python.h>
#include <numpy/ndarraytypes.h>
`

const mpiTestProg = `
#include <mpi.h>
int main(){}
`

const javaTestProg = `
public class Xmipp {
public static void main(String[] args) {}
}
`

const jniTestProg = `
#include <jni.h>
int dummy(){return 0;}
`

const cudaTestProg = `
#include <cuda_runtime.h>
#include <cufft.h>
int main(){}
`

// MPIEchoSentence must be printed once per MPI process
const MPIEchoSentence = "   > This sentence should be printed 2 times if mpi runs fine."

// Artifact globs left in the work dir by each verification
var (
	CompilerArtifacts = []string{"xmipp_test_main*"}
	MPIArtifacts      = []string{"xmipp_mpi_test_main*"}
	JavaArtifacts     = []string{"Xmipp.java", "Xmipp.class", "xmipp_jni_test*"}
	CUDAArtifacts     = []string{"xmipp_cuda_test*"}
)

// linkLibs are the libraries every xmipp program links against
func linkLibs(libDirFlags string) string {
	return fmt.Sprintf("-lfftw3 -lfftw3_threads -l%s -lhdf5_cpp -ltiff -ljpeg -lsqlite3 -lpthread",
		env.HDF5Name(libDirFlags))
}

// CheckCompiler builds and links a program using every library header.
// A compiler version below the minimum is returned as a fatal error.
func (s *Session) CheckCompiler(ctx context.Context) (bool, error) {
	c := s.Config
	s.Out.Plain("Checking compiler configuration ...")
	defer s.cleanup(CompilerArtifacts...)

	// drop wrappers such as ccache
	fields := strings.Fields(c.CXX)
	if len(fields) == 0 {
		s.Out.Red("No C++ compiler configured. Check the CXX in xmipp.conf")
		return false, nil
	}
	if err := s.EnsureCompilerVersion(ctx, fields[len(fields)-1]); err != nil {
		return false, err
	}

	prog := compilerTestProg
	if c.OpenCV.IsTrue() {
		prog += "#include <opencv2/core/core.hpp>\n"
		if c.OpenCVSupportsCUDA.IsTrue() {
			if c.OpenCV3.IsTrue() {
				prog += "#include <opencv2/cudaoptflow.hpp>\n"
			} else {
				prog += "#include <opencv2/core/cuda.hpp>\n"
			}
		}
	}
	prog += "\n int main(){}\n"
	if err := s.writeSource("xmipp_test_main.cpp", prog); err != nil {
		return false, err
	}

	if !s.try(ctx, cmdline(c.CXX, "-c -w", c.CXXFlags, "xmipp_test_main.cpp -o xmipp_test_main.o", c.IncDirFlags, c.PythonIncFlags)) {
		s.Out.Red("Check the INCDIRFLAGS, CXX, CXXFLAGS and PYTHONINCFLAGS in xmipp.conf")
		s.Out.Red("If some of the libraries headers fail, try installing fftw3_dev, tiff_dev, jpeg_dev, sqlite_dev, hdf5, pthread")
		return false, ctx.Err()
	}
	if !s.try(ctx, cmdline(c.LinkerForPrograms, c.LinkFlags, c.LibDirFlags, "xmipp_test_main.o -o xmipp_test_main", linkLibs(c.LibDirFlags))) {
		s.Out.Red("Check the LINKERFORPROGRAMS, LINKFLAGS and LIBDIRFLAGS")
		return false, ctx.Err()
	}
	return true, nil
}

// CheckMPI builds an MPI program and runs a two-process echo
func (s *Session) CheckMPI(ctx context.Context) (bool, error) {
	c := s.Config
	s.Out.Plain("Checking MPI configuration ...")
	defer s.cleanup(MPIArtifacts...)

	if err := s.writeSource("xmipp_mpi_test_main.cpp", mpiTestProg); err != nil {
		return false, err
	}

	if !s.try(ctx, cmdline(c.MPICXX, "-c -w", c.IncDirFlags, c.CXXFlags, c.MPICXXFlags, "xmipp_mpi_test_main.cpp -o xmipp_mpi_test_main.o")) {
		s.Out.Red("MPI compilation failed. Check the INCDIRFLAGS, MPI_CXX and CXXFLAGS in 'xmipp.conf'")
		s.Out.Red("In addition, MPI_CXXFLAGS can also be used to add flags to MPI compilations. "+
			"'%s --showme:compile' might help", c.MPICXX)
		return false, ctx.Err()
	}
	if !s.try(ctx, cmdline(c.MPILinkerForPrograms, c.LinkFlags, c.MPILinkFlags, c.LibDirFlags,
		"xmipp_mpi_test_main.o -o xmipp_mpi_test_main", linkLibs(c.LibDirFlags))) {
		s.Out.Red("Check the LINKERFORPROGRAMS, LINKFLAGS and LIBDIRFLAGS")
		s.Out.Red("In addition, MPI_LINKFLAGS can also be used to add flags to MPI links. "+
			"'%s --showme:compile' might help", c.MPICXX)
		return false, ctx.Err()
	}

	if !s.mpiEcho(ctx, "") && !s.mpiEcho(ctx, "--allow-run-as-root") {
		s.Out.Red("mpirun or mpiexec have failed.")
		return false, ctx.Err()
	}
	return true, nil
}

// mpiEcho runs the echo on two processes and requires both to answer
func (s *Session) mpiEcho(ctx context.Context, extra string) bool {
	command := s.Config.MPIRun + " -np 2 "
	if extra != "" {
		command += extra + " "
	}
	command += "echo '" + MPIEchoSentence + "'"

	out, err := s.run(ctx, command)
	s.Out.Lines(out)
	return err == nil && strings.Count(strings.Join(out, "\n"), MPIEchoSentence) >= 2
}

// CheckJava compiles a Java class and a JNI translation unit
func (s *Session) CheckJava(ctx context.Context) (bool, error) {
	c := s.Config
	if !s.checkProgram(c.JavaC) {
		s.Out.Red("'%s' is not an executable. Check the JAVAC", c.JavaC)
		return false, nil
	}
	s.Out.Plain("Checking Java configuration...")
	defer s.cleanup(JavaArtifacts...)

	if err := s.writeSource("Xmipp.java", javaTestProg); err != nil {
		return false, err
	}
	if !s.try(ctx, c.JavaC+" Xmipp.java") {
		s.Out.Red("Check the JAVAC")
		return false, ctx.Err()
	}

	if err := s.writeSource("xmipp_jni_test.cpp", jniTestProg); err != nil {
		return false, err
	}
	var incs []string
	for _, dir := range strings.Split(c.JNICPPPath, ":") {
		incs = append(incs, "-I"+dir)
	}
	if !s.try(ctx, cmdline(c.CXX, "-c -w", strings.Join(incs, " "), c.IncDirFlags, "xmipp_jni_test.cpp -o xmipp_jni_test.o")) {
		s.Out.Red("Check the JNI_CPPPATH, CXX and INCDIRFLAGS")
		return false, ctx.Err()
	}
	return true, nil
}

// CheckCUDA compiles and links a cufft program with nvcc and with the
// host linker. It passes trivially when CUDA is disabled.
func (s *Session) CheckCUDA(ctx context.Context) (bool, error) {
	c := s.Config
	if !c.CUDA.IsTrue() {
		return true, nil
	}
	if !s.checkProgram(c.NVCC) {
		return false, nil
	}
	s.Out.Plain("Checking CUDA configuration ...")
	defer s.cleanup(CUDAArtifacts...)

	if err := s.writeSource("xmipp_cuda_test.cpp", cudaTestProg); err != nil {
		return false, err
	}
	if !s.try(ctx, cmdline(c.NVCC, "-c -w", c.NVCCCXXFlags, c.IncDirFlags, "xmipp_cuda_test.cpp -o xmipp_cuda_test.o")) {
		s.Out.Red("Check the NVCC, NVCC_CXXFLAGS and INCDIRFLAGS")
		return false, ctx.Err()
	}
	if !s.try(ctx, cmdline(c.NVCC, c.NVCCLinkFlags, "xmipp_cuda_test.o -o xmipp_cuda_test -lcudart -lcufft")) {
		s.Out.Red("Check the NVCC and NVCC_LINKFLAGS")
		return false, ctx.Err()
	}
	if !s.try(ctx, cmdline(c.CXX, c.NVCCLinkFlags, "xmipp_cuda_test.o -o xmipp_cuda_test -lcudart -lcufft")) {
		s.Out.Red("Check the CXX and NVCC_LINKFLAGS")
		return false, ctx.Err()
	}
	return true, nil
}
