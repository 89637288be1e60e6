// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds CLI settings loaded from config.yaml. The file is optional;
// missing values fall back to defaults so the CLI works against a local
// server out of the box.
type Config struct {
	// ServerURL is the pipeline service base URL.
	ServerURL string `yaml:"server_url"`

	// RequestTimeoutMinutes bounds one analyze call end to end. A full run
	// folds several structures, so this is long.
	RequestTimeoutMinutes int `yaml:"request_timeout_minutes"`
}

var config Config

// loadConfig reads config.yaml from the working directory when present and
// applies defaults.
func loadConfig() {
	if yamlFile, err := os.ReadFile("config.yaml"); err == nil {
		if err := yaml.Unmarshal(yamlFile, &config); err != nil {
			log.Fatalf("Error parsing config.yaml: %v", err)
		}
		log.Println("Configuration loaded from config.yaml")
	}

	if config.ServerURL == "" {
		config.ServerURL = "http://localhost:12310"
	}
	if config.RequestTimeoutMinutes == 0 {
		config.RequestTimeoutMinutes = 45
	}
}
