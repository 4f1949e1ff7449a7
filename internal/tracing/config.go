// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

// Exporter names accepted in tracing.exporter.
const (
	ExporterNone     = "none"
	ExporterConsole  = "console"
	ExporterOTLP     = "otlp"
	ExporterOTLPHTTP = "otlp-http"
)

// Config selects where spans go.
type Config struct {
	// ServiceName is the resource service.name ("rhmcp-rhino").
	ServiceName string `yaml:"-"`

	// ServiceVersion is the binary version.
	ServiceVersion string `yaml:"-"`

	// Exporter is one of none, console, otlp or otlp-http.
	Exporter string `yaml:"exporter"`

	// Endpoint is the collector address for the otlp exporters.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure,omitempty"`

	// Headers are sent with every export request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// SampleRate is the fraction of root spans kept, 0 < rate <= 1.
	SampleRate float64 `yaml:"sample_rate,omitempty"`
}
