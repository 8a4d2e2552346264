package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridsim/bevflow/core/model"
)

func fixture(name string, kind model.ProfileKind) *model.Profile {
	ref := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	ts := model.NewTimeSeries(ref, time.Hour, 3)
	ts.Values[1] = 5
	return &model.Profile{
		Name:      name,
		Kind:      kind,
		Group:     "commuter",
		CreatedAt: ref,
		Series:    map[string]*model.TimeSeries{model.SeriesKm: ts},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)

	p := fixture("BEV_commuter_a", model.KindDriving)
	require.NoError(t, db.Put(p))

	got, err := db.Get("BEV_commuter_a")
	require.NoError(t, err)
	require.Equal(t, p.Series[model.SeriesKm].Values, got.Series[model.SeriesKm].Values)

	_, err = db.Get("missing")
	require.Error(t, err)
}

func TestReloadFromDisk(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, db.Put(fixture("BEV_commuter_a", model.KindDriving)))
	require.NoError(t, db.Put(fixture("BEV_commuter_b", model.KindConsumption)))

	// A fresh handle sees everything the first one wrote.
	db2, err := Open(dir)
	require.NoError(t, err)
	require.Equal(t, 2, db2.Len())
	require.Equal(t, []string{"BEV_commuter_a", "BEV_commuter_b"}, db2.Names())
}

func TestByKind(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, db.Put(fixture("b", model.KindDriving)))
	require.NoError(t, db.Put(fixture("a", model.KindDriving)))
	require.NoError(t, db.Put(fixture("c", model.KindCharging)))

	driving := db.ByKind(model.KindDriving)
	require.Len(t, driving, 2)
	require.Equal(t, "a", driving[0].Name)
	require.Empty(t, db.ByKind(model.KindAvailability))
}

func TestReloadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))
	_, err := Open(dir)
	require.Error(t, err)
}

func TestPutRejectsInvalidProfile(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	p := fixture("x", "bogus")
	require.Error(t, db.Put(p))
}
