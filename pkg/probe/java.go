package probe

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/env"
	"github.com/arc-language/buildconf/pkg/shell"
)

// ConfigureJava resolves JAVA_HOME and derives the JDK paths from it
func (s *Session) ConfigureJava(ctx context.Context) error {
	c := s.Config

	if c.JavaHome == "" {
		if dir := s.findJavac(ctx); dir != "" {
			s.Env.Update(env.Begin, true, "PATH", dir)
			s.assign(core.KeyJavaHome, &c.JavaHome, JavaHome(dir))
		}
	}

	if c.JavaHome != "" {
		if c.JavaBinDir == "" {
			s.assign(core.KeyJavaBinDir, &c.JavaBinDir, JavaBinDir(c.JavaHome))
		}
		if c.JavaC == "" {
			s.assign(core.KeyJavaC, &c.JavaC, filepath.Join(c.JavaBinDir, "javac"))
		}
		if c.Jar == "" {
			s.assign(core.KeyJar, &c.Jar, filepath.Join(c.JavaBinDir, "jar"))
		}
		if c.JNICPPPath == "" {
			s.assign(core.KeyJNICPPPath, &c.JNICPPPath, JNICPPPath(c.JavaHome))
		}
	}

	if shell.IsFile(c.JavaC) && shell.IsFile(c.Jar) && shell.IsDir(filepath.Join(c.JavaHome, "include")) {
		s.Out.Green("Java detected at: %s", c.JavaHome)
	} else {
		s.Out.Red("No development environ for 'java' found. " +
			"Please, check JAVA_HOME, JAVAC, JAR and JNI_CPPPATH variables.")
	}
	return ctx.Err()
}

// findJavac returns the real directory of javac, installing a JDK as a
// last resort
func (s *Session) findJavac(ctx context.Context) string {
	dir := shell.WhereIs(s.Getenv, "javac", true, "")
	if dir == "" {
		s.Out.Yellow("'javac' not found in the PATH")
		dir = shell.FindFileInDirs("javac", s.Search.JVMBins...)
		dir = s.Prompt.AskPath(dir, s.Ask)
	}
	if shell.IsDir(dir) {
		return dir
	}

	inst := s.installDep(ctx, "openjdk")
	if inst == nil {
		return ""
	}
	search := append([]string{}, inst.BinDirs...)
	if p := s.Getenv("PATH"); p != "" {
		search = append(search, p)
	}
	return shell.WhereIs(s.Getenv, "javac", true, strings.Join(search, ":"))
}

// JavaHome strips the jre/bin or bin suffix of a javac directory
func JavaHome(javacDir string) string {
	home := filepath.Clean(javacDir)
	for _, suffix := range []string{"/jre/bin", "/bin"} {
		home = strings.TrimSuffix(home, suffix)
	}
	return home
}

func JavaBinDir(home string) string {
	return filepath.Join(home, "bin")
}

// JNICPPPath lists the jni.h directories, colon separated
func JNICPPPath(home string) string {
	return filepath.Join(home, "include") + ":" + filepath.Join(home, "include", "linux")
}
