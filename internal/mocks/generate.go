// Package mocks provides mock implementations for testing the demo-scheduler
// engine.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the narrow hook interfaces the engine accepts. The wide repository ports are
// covered by the hand-written fakes in the memrepo subpackage instead; gomock
// expectation chains get unwieldy for interfaces with ten methods.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	ranker := mocks.NewMockEmployeeRanker(ctrl)
//	ranker.EXPECT().Rank(gomock.Any(), gomock.Any()).Return(pool, nil)
package mocks

// Generate mock for EmployeeRanker interface from internal/core package.
// This creates MockEmployeeRanker with methods for all EmployeeRanker interface methods:
// Rank
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=employee_ranker_mock.go github.com/fieldops/demo-scheduler/internal/core EmployeeRanker

// Generate mock for BumpNotifier interface from internal/core package.
// This creates MockBumpNotifier with methods for all BumpNotifier interface methods:
// ScheduleBumped
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=bump_notifier_mock.go github.com/fieldops/demo-scheduler/internal/core BumpNotifier

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete, SetIfNotExists, Health
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cache_repository_mock.go github.com/fieldops/demo-scheduler/internal/core CacheRepository
