// pkg/core/keys.go
package core

// Recognized xmipp.conf keys
const (
	KeyBuildTests           = "BUILD_TESTS"
	KeyCC                   = "CC"
	KeyCXX                  = "CXX"
	KeyLinkerForPrograms    = "LINKERFORPROGRAMS"
	KeyIncDirFlags          = "INCDIRFLAGS"
	KeyLibDirFlags          = "LIBDIRFLAGS"
	KeyCCFlags              = "CCFLAGS"
	KeyCXXFlags             = "CXXFLAGS"
	KeyLinkFlags            = "LINKFLAGS"
	KeyPythonIncFlags       = "PYTHONINCFLAGS"
	KeyMPICC                = "MPI_CC"
	KeyMPICXX               = "MPI_CXX"
	KeyMPIRun               = "MPI_RUN"
	KeyMPILinkerForPrograms = "MPI_LINKERFORPROGRAMS"
	KeyMPICXXFlags          = "MPI_CXXFLAGS"
	KeyMPILinkFlags         = "MPI_LINKFLAGS"
	KeyNVCC                 = "NVCC"
	KeyCXXCUDA              = "CXX_CUDA"
	KeyNVCCCXXFlags         = "NVCC_CXXFLAGS"
	KeyNVCCLinkFlags        = "NVCC_LINKFLAGS"
	KeyMatlabDir            = "MATLAB_DIR"
	KeyCUDA                 = "CUDA"
	KeyDebug                = "DEBUG"
	KeyMatlab               = "MATLAB"
	KeyOpenCV               = "OPENCV"
	KeyOpenCVSupportsCUDA   = "OPENCVSUPPORTSCUDA"
	KeyOpenCV3              = "OPENCV3"
	KeyJavaHome             = "JAVA_HOME"
	KeyJavaBinDir           = "JAVA_BINDIR"
	KeyJavaC                = "JAVAC"
	KeyJar                  = "JAR"
	KeyJNICPPPath           = "JNI_CPPPATH"
	KeyStarPU               = "STARPU"
	KeyStarPUHome           = "STARPU_HOME"
	KeyStarPUInclude        = "STARPU_INCLUDE"
	KeyStarPULib            = "STARPU_LIB"
	KeyStarPULibrary        = "STARPU_LIBRARY"
	KeyUseDL                = "USE_DL"
	KeyVerified             = "VERIFIED"
	KeyConfigVersion        = "CONFIG_VERSION"
	KeyPythonLib            = "PYTHON_LIB"
)

// Section is the only INI section of xmipp.conf
const Section = "BUILD"

// Default file names
const (
	DefaultConfigFile   = "xmipp.conf"
	DefaultTemplateFile = "xmipp.template"
	DefaultEnvFile      = "xmippEnv.json"
)

// RecognizedKeys lists every key in declaration order
var RecognizedKeys = []string{
	KeyBuildTests, KeyCC, KeyCXX, KeyLinkerForPrograms, KeyIncDirFlags, KeyLibDirFlags,
	KeyCCFlags, KeyCXXFlags, KeyLinkFlags, KeyPythonIncFlags,
	KeyMPICC, KeyMPICXX, KeyMPIRun, KeyMPILinkerForPrograms, KeyMPICXXFlags, KeyMPILinkFlags,
	KeyNVCC, KeyCXXCUDA, KeyNVCCCXXFlags, KeyNVCCLinkFlags,
	KeyMatlabDir, KeyCUDA, KeyDebug, KeyMatlab, KeyOpenCV, KeyOpenCVSupportsCUDA, KeyOpenCV3,
	KeyJavaHome, KeyJavaBinDir, KeyJavaC, KeyJar, KeyJNICPPPath,
	KeyStarPU, KeyStarPUHome, KeyStarPUInclude, KeyStarPULib, KeyStarPULibrary,
	KeyUseDL, KeyVerified, KeyConfigVersion, KeyPythonLib,
}

// IsRecognized reports whether key belongs to the fixed key set
func IsRecognized(key string) bool {
	for _, k := range RecognizedKeys {
		if k == key {
			return true
		}
	}
	return false
}
