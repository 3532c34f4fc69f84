package env

/*
Package env tracks the environment changes a configuration run needs and
knows where libraries and headers live on disk.

It handles:
  - Recording PATH / LD_LIBRARY_PATH style mutations in order
  - Persisting them as JSON or dotenv, and rendering shell exports
  - Finding libraries in a list of directories
  - Mapping installer backends to their prefix layouts

Basic Usage:

    log := env.NewLog()
    log.Update(env.Begin, true, "LD_LIBRARY_PATH", "/opt/hdf5/lib")
    log.Update(env.Begin, false, "CUDA", true)
    if err := log.Write("xmippEnv.json"); err != nil {
        return err
    }

    fmt.Print(env.Script(log.Vars()))
    // export CUDA="True"
    // export LD_LIBRARY_PATH="/opt/hdf5/lib:$LD_LIBRARY_PATH"

Layouts:

Each installer backend drops files in a different tree below its prefix.
APT packages put libraries in usr/lib/x86_64-linux-gnu while conda and
nix use lib/ directly. LayoutFor returns the relative directories to
search and Layout.Resolve turns them into existing absolute paths.
*/
