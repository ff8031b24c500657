// Package fonts locates a system font able to render recognized text.
//
// Candidates are ordered CJK first so that Chinese output renders when such
// a font is installed, with common Latin fonts after them.
package fonts

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

var candidates = map[string][]string{
	"windows": {
		`C:\Windows\Fonts\msyh.ttc`,
		`C:\Windows\Fonts\msyh.ttf`,
		`C:\Windows\Fonts\simsun.ttc`,
		`C:\Windows\Fonts\simhei.ttf`,
		`C:\Windows\Fonts\arialuni.ttf`,
		`C:\Windows\Fonts\arial.ttf`,
	},
	"darwin": {
		"/System/Library/Fonts/PingFang.ttc",
		"/System/Library/Fonts/STHeiti Light.ttc",
		"/Library/Fonts/Arial Unicode.ttf",
		"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
		"/Library/Fonts/Arial.ttf",
	},
	"linux": {
		"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
		"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
		"/usr/share/fonts/google-noto-cjk/NotoSansCJK-Regular.ttc",
		"/usr/share/fonts/truetype/wqy/wqy-microhei.ttc",
		"/usr/share/fonts/wenquanyi/wqy-microhei/wqy-microhei.ttc",
		"/usr/share/fonts/truetype/arphic/uming.ttc",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	},
}

// Candidates returns the font paths tried on goos, in order of preference.
// Unknown systems get the Linux list.
func Candidates(goos string) []string {
	if list, ok := candidates[goos]; ok {
		return slices.Clone(list)
	}
	return slices.Clone(candidates["linux"])
}

// Find returns override when it names an existing file, otherwise the first
// existing candidate for the running system. When exts is not empty only
// files with one of those extensions qualify. It returns "" when nothing is
// usable.
func Find(override string, exts ...string) string {
	return find(override, Candidates(runtime.GOOS), exts)
}

func find(override string, list []string, exts []string) string {
	if override != "" && usable(override, exts) {
		return override
	}
	for _, path := range list {
		if usable(path, exts) {
			return path
		}
	}
	return ""
}

func usable(path string, exts []string) bool {
	if len(exts) > 0 && !slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
