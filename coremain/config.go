/*
 * Copyright (C) 2023-2025, tldex contributors
 *
 * This file is part of tldex.
 *
 * tldex is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * tldex is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package coremain

import (
	"github.com/tldex/tldex/mlog"
)

type Config struct {
	Log      mlog.LogConfig `yaml:"log"`
	SuffixDB SuffixDBConfig `yaml:"suffix_db"`
	API      APIConfig      `yaml:"api"`
}

// SuffixDBConfig controls where suffix rules come from and how often
// they are refreshed.
type SuffixDBConfig struct {
	// URL of the remote rule list.
	// Default is the public suffix list.
	URL string `yaml:"url"`

	// File is a local rule list. When set it takes precedence over URL.
	File string `yaml:"file"`

	// AutoReload watches File and reloads it on change.
	AutoReload bool `yaml:"auto_reload"`

	// RefreshInterval (sec) between periodic refreshes. Default is 86400.
	RefreshInterval uint `yaml:"refresh_interval"`

	// FetchTimeout (sec) for a single remote fetch. Default is 30.
	FetchTimeout uint `yaml:"fetch_timeout"`
}

type APIConfig struct {
	HTTP string `yaml:"http"`
}
