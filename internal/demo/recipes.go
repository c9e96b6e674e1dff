// Package demo provides a small built-in recipe set for cmd/buildplan to
// plan and run, mirroring two of the concrete planning scenarios: a single
// dependency chain, and a split where two consumers of a shared dependency
// diverge once one of them registers a more specific recipe.
package demo

import (
	"context"
	"fmt"

	"github.com/samgonzalez27/buildplan/internal/core"
)

var (
	TypeConfig   = core.NewAssetType("Config")
	TypeDatabase = core.NewAssetType("Database")
	TypeCache    = core.NewAssetType("Cache")
	TypeServer   = core.NewAssetType("Server")
)

// Config is a leaf asset: no dependencies.
type Config struct {
	Source string
}

func (Config) AssetType() core.AssetType { return TypeConfig }

type ConfigRecipe struct{}

func (ConfigRecipe) Produces() core.AssetType { return TypeConfig }
func (ConfigRecipe) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(Config{Source: "env"}), nil
}

// Database depends on Config.
type Database struct {
	DSN string
}

func (Database) AssetType() core.AssetType { return TypeDatabase }

type DatabaseRecipe struct {
	Config core.Ref[Config] `inject:""`
}

func (DatabaseRecipe) Produces() core.AssetType { return TypeDatabase }
func (r *DatabaseRecipe) Make(context.Context) (core.MakeResult, error) {
	cfg := r.Config.Get()
	db := Database{DSN: "postgres://" + cfg.Source}
	return core.Scoped(db, func() error {
		return nil // close pool
	}), nil
}

// Server is the demo target: depends on Database and Cache, both of which
// depend on Config, exercising scenario 1 (single chain) end to end. For
// scenario 4 (split) a caller additionally registers ConfigForCacheRecipe
// under a context tying it to Cache, causing Cache's Config dependency to
// diverge from Database's.
type Server struct {
	Addr string
}

func (Server) AssetType() core.AssetType { return TypeServer }

type ServerRecipe struct {
	Database core.Ref[Database] `inject:""`
	Cache    core.Ref[Cache]    `inject:""`
}

func (ServerRecipe) Produces() core.AssetType { return TypeServer }
func (r *ServerRecipe) Make(context.Context) (core.MakeResult, error) {
	db := r.Database.Get()
	cache := r.Cache.Get()
	return core.Plain(Server{Addr: fmt.Sprintf("demo-server[%s,%s]", db.DSN, cache.Addr)}), nil
}

// Cache depends on Config, same as Database — together they form the
// diamond/split scenarios depending on which Config recipes are registered.
type Cache struct {
	Addr string
}

func (Cache) AssetType() core.AssetType { return TypeCache }

type CacheRecipe struct {
	Config core.Ref[Config] `inject:""`
}

func (CacheRecipe) Produces() core.AssetType { return TypeCache }
func (r *CacheRecipe) Make(context.Context) (core.MakeResult, error) {
	cfg := r.Config.Get()
	return core.Plain(Cache{Addr: "cache://" + cfg.Source}), nil
}

// ConfigForCacheRecipe is a Config recipe preferred only on paths that run
// through Cache — registering it alongside the default ConfigRecipe forces
// a split, so Database and Cache end up with two distinct Config nodes.
type ConfigForCacheRecipe struct{}

func (ConfigForCacheRecipe) Produces() core.AssetType { return TypeConfig }
func (ConfigForCacheRecipe) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(Config{Source: "cache-tuned-env"}), nil
}
