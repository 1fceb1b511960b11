package config

import "reflect"

// ChangedSections lists the top-level sections that differ between two configs.
// Credentials are compared but never returned with values, only by name.
func ChangedSections(oldCfg, newCfg *Config) []string {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var out []string
	add := func(name string, a, b any) {
		if !reflect.DeepEqual(a, b) {
			out = append(out, name)
		}
	}
	add("credentials", oldCfg.Credentials, newCfg.Credentials)
	add("feed", oldCfg.Feed, newCfg.Feed)
	add("images", oldCfg.Images, newCfg.Images)
	add("publisher", oldCfg.Publisher, newCfg.Publisher)
	add("pacing", oldCfg.Pacing, newCfg.Pacing)
	add("logging", oldCfg.Logging, newCfg.Logging)
	add("telegram", oldCfg.Telegram, newCfg.Telegram)
	add("status", oldCfg.Status, newCfg.Status)
	add("storage", oldCfg.Storage, newCfg.Storage)
	return out
}

// HotReloadable reports whether a section takes effect without a restart.
func HotReloadable(section string) bool {
	return section == "logging"
}
