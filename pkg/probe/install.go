package probe

import (
	"context"
	"fmt"

	"github.com/arc-language/buildconf/pkg/core"
	"github.com/arc-language/buildconf/pkg/env"
)

// installDep installs a missing dependency through the session installer
// and folds the installed directories into the configuration. It returns
// nil when nothing was installed.
func (s *Session) installDep(ctx context.Context, dep string) *core.Installation {
	if s.Installer == nil {
		s.Out.Red("No package installer available. Please, install '%s' manually "+
			"and run again 'xmipp config'.", dep)
		return nil
	}
	backend := s.Installer.Name()
	log := s.Log.With().Str("dep", dep).Str("backend", backend).Logger()

	pkg := dep
	if s.Registry != nil {
		name, err := s.Registry.Resolve(dep, backend)
		if err != nil {
			s.Out.Red("Cannot install '%s' with %s: %v", dep, backend, err)
			return nil
		}
		pkg = name
	}

	if s.Ask && !s.Prompt.Confirm(fmt.Sprintf("Do you want to install '%s' with %s?", pkg, backend)) {
		s.Out.Yellow("Skipping '%s'. Please, install it manually.", pkg)
		return nil
	}

	inst, err := s.Installer.Install(ctx, pkg, &core.InstallOptions{VerifyHash: true})
	if err != nil {
		log.Error().Err(err).Msg("install failed")
		s.Out.Red("Cannot install '%s' with %s: %v", pkg, backend, err)
		return nil
	}
	s.Out.Green("'%s' installed with %s at '%s'.", pkg, backend, inst.Prefix)

	s.checkInstalledLibs(dep, inst)
	if inst.System {
		// -I/usr/include breaks #include_next in libstdc++
		return inst
	}
	for _, d := range inst.LibDirs {
		s.appendTo(core.KeyLibDirFlags, &s.Config.LibDirFlags, "-L"+d)
		s.Env.Update(env.Begin, true, "LD_LIBRARY_PATH", d)
	}
	s.installedIncludes = append(s.installedIncludes, inst.IncludeDirs...)
	return inst
}

// checkInstalledLibs warns when the libraries the registry expects are
// missing from the installation
func (s *Session) checkInstalledLibs(dep string, inst *core.Installation) {
	if s.Registry == nil {
		return
	}
	entry, err := s.Registry.Load(dep)
	if err != nil {
		return
	}
	for _, lib := range entry.Libs {
		if env.FindLibrary(lib, inst.LibDirs) == nil {
			s.Log.Warn().Str("dep", dep).Str("lib", lib).Strs("dirs", inst.LibDirs).Msg("library not found after install")
		}
	}
}
