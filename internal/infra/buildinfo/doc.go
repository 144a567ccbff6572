// Package buildinfo exposes build-time information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/tickstate-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Values left unset fall back to what the Go toolchain embedded in the
// binary (module version, VCS revision and time, compiler version).
package buildinfo
