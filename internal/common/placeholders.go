package common

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
)

// placeholderPattern matches {name} references in config strings
var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// PathVars returns the placeholders config paths may use:
// {exe_dir} (directory of the running binary), {cwd} and {home}.
func PathVars() map[string]string {
	vars := map[string]string{}
	if execPath, err := os.Executable(); err == nil {
		vars["exe_dir"] = filepath.Dir(execPath)
	}
	if cwd, err := os.Getwd(); err == nil {
		vars["cwd"] = cwd
	}
	if home, err := os.UserHomeDir(); err == nil {
		vars["home"] = home
	}
	return vars
}

// ExpandPlaceholders replaces {name} references in every string and []string field of the
// struct v points to, recursing into nested structs. Unknown names are left in place and
// returned sorted so the caller can reject them.
func ExpandPlaceholders(v interface{}, vars map[string]string) ([]string, error) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("ExpandPlaceholders requires a struct pointer, got %T", v)
	}

	unresolved := map[string]struct{}{}
	expandStruct(val.Elem(), vars, unresolved)

	names := make([]string, 0, len(unresolved))
	for name := range unresolved {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func expandStruct(val reflect.Value, vars map[string]string, unresolved map[string]struct{}) {
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(expandString(field.String(), vars, unresolved))
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					elem := field.Index(j)
					elem.SetString(expandString(elem.String(), vars, unresolved))
				}
			}
		case reflect.Struct:
			expandStruct(field, vars, unresolved)
		}
	}
}

func expandString(s string, vars map[string]string, unresolved map[string]struct{}) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		unresolved[name] = struct{}{}
		return match
	})
}
