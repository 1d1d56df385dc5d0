package hooks

import (
	"os"
	"path/filepath"
	"runtime"
)

// luaModuleExt marks native-module hooks; every other extension is treated
// as an external executable gated on the execute permission bit.
const luaModuleExt = ".lua"

// Register turns a discovered source into a valid plugin or a diagnosed
// invalid registration. The decision is a pure dispatch on file extension.
// Register never returns an error: malformed hooks are data, not failures,
// so one broken hook never aborts the discovery pass.
func Register(source Source) (*ValidRegistration, *InvalidRegistration) {
	if filepath.Ext(source.AbsolutePath) == luaModuleExt {
		return registerLuaModule(source)
	}
	return registerExecutable(source)
}

func registerLuaModule(source Source) (*ValidRegistration, *InvalidRegistration) {
	hook, diags := loadLuaHook(source)
	if hook == nil {
		return nil, invalidFor(source, diags...)
	}
	return &ValidRegistration{Plugin: &Plugin{
		Nature: NatureLuaModuleFunction,
		Source: source,
		Lua:    hook,
	}}, nil
}

func registerExecutable(source Source) (*ValidRegistration, *InvalidRegistration) {
	if !isExecutable(source.AbsolutePath) {
		return nil, invalidFor(source, "executable bit not set on source")
	}
	return &ValidRegistration{Plugin: &Plugin{
		Nature: NatureShellExecutable,
		Source: source,
		Shell:  &ShellHook{source: source, envPrefix: DefaultEnvPrefix},
	}}, nil
}

// isExecutable checks the POSIX execute bit. Hosts without one (Windows)
// treat every file as executable.
func isExecutable(path string) bool {
	if runtime.GOOS == "windows" {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
