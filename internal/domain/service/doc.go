// Package service holds the registry of tool providers. Every provider exposes a
// types.Service definition and executes tools addressed as "<service>.<tool>".
package service
