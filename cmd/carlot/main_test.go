package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/carlot"
	main "github.com/fwojciec/carlot/cmd/carlot"
	"github.com/fwojciec/carlot/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<!DOCTYPE html>
<html>
<head><title>Търсене</title></head>
<body>
<nav><div>Начало | Вход | Публикувай</div></nav>
<div class="results">
	<div class="item">
		<a href="/obiava-1"><img src="/photos/big/1.jpg"></a>
		<div class="title">BMW M5 Competition</div>
		<div class="params"><span>2019 г.</span> <span>113 000 км</span> <span>Бензинов</span></div>
		<div class="price">109 999 лв</div>
	</div>
	<div class="item">
		<a href="/obiava-2"><img src="/photos/big/2.jpg"></a>
		<div class="title">BMW M5</div>
		<div class="params"><span>2018 г.</span> <span>95 000 км</span></div>
		<div class="price">89 500 лв</div>
	</div>
</div>
<footer><div>© 2024 Всички права запазени</div></footer>
</body>
</html>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestMain_Run_List(t *testing.T) {
	t.Parallel()

	t.Run("reports empty database", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "test.db")
		stdout := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"list"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No listings found")
	})

	t.Run("shows stored listings", func(t *testing.T) {
		t.Parallel()

		dbPath := filepath.Join(t.TempDir(), "test.db")
		db := sqlite.NewDB(dbPath)
		require.NoError(t, db.Open())
		price := 109999.0
		_, err := sqlite.NewListingService(db).UpsertListing(context.Background(), &carlot.Listing{
			SourceSite: "mobile.bg",
			SourceID:   "11736",
			SourceURL:  "https://www.mobile.bg/obiava-11736",
			Title:      "BMW M5 2019",
			Price:      &price,
			Currency:   "BGN",
		})
		require.NoError(t, err)
		require.NoError(t, db.Close())

		m := main.NewMain()
		m.DBPath = dbPath
		stdout := &bytes.Buffer{}

		err = m.Run(context.Background(), []string{"list", "--site", "mobile.bg"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "BMW M5 2019")
		assert.Contains(t, stdout.String(), "109999 BGN")
	})
}

func TestMain_Run_Delete(t *testing.T) {
	t.Parallel()

	t.Run("requires --force", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "test.db")
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"delete", "--site", "mobile.bg"}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "--force")
	})

	t.Run("reports missing listing", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "test.db")

		err := m.Run(context.Background(), []string{"delete", "missing-id", "--force"}, &bytes.Buffer{}, &bytes.Buffer{})

		assert.Equal(t, carlot.ENOTFOUND, carlot.ErrorCode(err))
	})
}

func TestMain_Run_Extract(t *testing.T) {
	t.Parallel()

	t.Run("prints listings of a saved results page", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "search.html", resultsPage)
		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "unused", "test.db")
		stdout := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{
			"extract", path, "--url", "https://www.mobile.bg/search", "--make", "BMW", "--model", "M5",
		}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		var listings []carlot.Listing
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &listings))
		require.Len(t, listings, 2)
		assert.Equal(t, "https://www.mobile.bg/obiava-1", listings[0].SourceURL)
		assert.Equal(t, "mobile.bg", listings[0].SourceSite)
		assert.Equal(t, "BMW", listings[0].Make)
		require.NotNil(t, listings[0].Year)
		assert.Equal(t, 2019, *listings[0].Year)
		require.NotNil(t, listings[1].Year)
		assert.Equal(t, 2018, *listings[1].Year)
		_, err = os.Stat(filepath.Dir(m.DBPath))
		assert.True(t, os.IsNotExist(err), "extract should not open the database")
	})

	t.Run("reads source defaults from config file", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "search.html", resultsPage)
		config := writeFile(t, "carlot.json", `{"make": "Audi", "currency": "EUR"}`)
		m := main.NewMain()
		m.DBPath = filepath.Join(t.TempDir(), "test.db")
		stdout := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{
			"--config", config, "extract", path, "--url", "https://www.mobile.bg/search",
		}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		var listings []carlot.Listing
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &listings))
		require.NotEmpty(t, listings)
		assert.Equal(t, "Audi", listings[0].Make)
	})
}
