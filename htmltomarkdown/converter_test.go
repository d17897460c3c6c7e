package htmltomarkdown_test

import (
	"testing"

	"github.com/fwojciec/carlot"
	"github.com/fwojciec/carlot/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Converter implements carlot.Converter at compile time.
var _ carlot.Converter = (*htmltomarkdown.Converter)(nil)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	t.Run("converts basic paragraph", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<p>Колата е в отлично състояние.</p>`)

		require.NoError(t, err)
		assert.Equal(t, "Колата е в отлично състояние.", md)
	})

	t.Run("converts headings", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<h1>BMW M5</h1><h2>Екстри</h2>`)

		require.NoError(t, err)
		assert.Contains(t, md, "# BMW M5")
		assert.Contains(t, md, "## Екстри")
	})

	t.Run("converts extras lists", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<ul><li>Климатроник</li><li>Кожен салон</li><li>Навигация</li></ul>`)

		require.NoError(t, err)
		assert.Contains(t, md, "- Климатроник")
		assert.Contains(t, md, "- Кожен салон")
		assert.Contains(t, md, "- Навигация")
	})

	t.Run("converts specification tables", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<thead><tr><th>Параметър</th><th>Стойност</th></tr></thead>
<tbody><tr><td>Мощност</td><td>625 к.с.</td></tr><tr><td>Пробег</td><td>113 000 км</td></tr></tbody>
</table>`

		md, err := htmltomarkdown.NewConverter().Convert(html)

		require.NoError(t, err)
		assert.Contains(t, md, "Мощност")
		assert.Contains(t, md, "625 к.с.")
		assert.Contains(t, md, "|")
		assert.Contains(t, md, "---")
	})

	t.Run("converts links and emphasis", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<p><strong>Спешно!</strong> Виж <a href="https://cars.bg/dealer/7">дилъра</a>.</p>`)

		require.NoError(t, err)
		assert.Contains(t, md, "**Спешно!**")
		assert.Contains(t, md, "[дилъра](https://cars.bg/dealer/7)")
	})

	t.Run("drops photos and contact forms", func(t *testing.T) {
		t.Parallel()

		html := `<div>
<p>Описание на колата.</p>
<img src="/photos/1.jpg" alt="снимка">
<form><input name="phone"><button>Изпрати</button></form>
</div>`

		md, err := htmltomarkdown.NewConverter().Convert(html)

		require.NoError(t, err)
		assert.Contains(t, md, "Описание на колата.")
		assert.NotContains(t, md, "photos/1.jpg")
		assert.NotContains(t, md, "Изпрати")
	})

	t.Run("collapses blank lines", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<p>Първи.</p><div><br><br><br></div><p>Втори.</p>`)

		require.NoError(t, err)
		assert.NotContains(t, md, "\n\n\n")
	})

	t.Run("returns error for empty input", func(t *testing.T) {
		t.Parallel()

		_, err := htmltomarkdown.NewConverter().Convert("")

		require.Error(t, err)
		assert.Equal(t, carlot.EINVALID, carlot.ErrorCode(err))
	})
}
