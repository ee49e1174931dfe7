// Package infra contains technical adapters such as the SQLite audit
// store, the HTTP weather client, MQTT notification publishing and
// metrics exporters. These packages should depend only on the
// interfaces defined in the core packages.
package infra
