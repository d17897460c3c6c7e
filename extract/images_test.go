package extract_test

import (
	"testing"

	"github.com/fwojciec/carlot/extract"
	"github.com/fwojciec/carlot/mock"
	"github.com/stretchr/testify/assert"
)

func TestImageHarvester_HarvestImages(t *testing.T) {
	t.Parallel()

	t.Run("drops denylisted and keeps allowlisted", func(t *testing.T) {
		t.Parallel()

		n := mock.El("div", "",
			mock.El("img", "").With("src", "https://cdn.example.com/static/logo.png"),
			mock.El("img", "").With("src", "https://cdn.example.com/uploads/photo123.jpg"),
		)

		urls := extract.NewImageHarvester().HarvestImages(n, "https://list.example.org/")

		assert.Equal(t, []string{"https://cdn.example.com/uploads/photo123.jpg"}, urls)
	})

	t.Run("deduplicates repeated references", func(t *testing.T) {
		t.Parallel()

		n := mock.El("div", "",
			mock.El("img", "").With("src", "https://cdn.example.com/uploads/photo123.jpg"),
			mock.El("a", "",
				mock.El("img", "").With("data-src", "https://cdn.example.com/uploads/photo123.jpg"),
			),
		)

		urls := extract.NewImageHarvester().HarvestImages(n, "https://list.example.org/")

		assert.Equal(t, []string{"https://cdn.example.com/uploads/photo123.jpg"}, urls)
	})

	t.Run("normalizes relative references", func(t *testing.T) {
		t.Parallel()

		n := mock.El("div", "",
			mock.El("img", "").With("data-src", "//img.example.com/a.jpg"),
			mock.El("img", "").With("src", "/gallery/b.jpg"),
			mock.El("img", "").With("src", "pics/c.jpg"),
		)

		urls := extract.NewImageHarvester().HarvestImages(n, "http://cars.example.com/search/list")

		assert.Equal(t, []string{
			"http://cars.example.com/gallery/b.jpg",
			"http://cars.example.com/search/pics/c.jpg",
			"https://img.example.com/a.jpg",
		}, urls)
	})

	t.Run("reads inline background images", func(t *testing.T) {
		t.Parallel()

		n := mock.El("div", "").With("style", "width: 200px; background-image: url('/gallery/5.jpg');")

		urls := extract.NewImageHarvester().HarvestImages(n, "https://cars.example.com/")

		assert.Equal(t, []string{"https://cars.example.com/gallery/5.jpg"}, urls)
	})

	t.Run("reads the first srcset candidate", func(t *testing.T) {
		t.Parallel()

		n := mock.El("picture", "",
			mock.El("source", "").With("srcset", "/photos/1-small.webp 480w, /photos/1-large.webp 1080w"),
		)

		urls := extract.NewImageHarvester().HarvestImages(n, "https://cars.example.com/")

		assert.Equal(t, []string{"https://cars.example.com/photos/1-small.webp"}, urls)
	})

	t.Run("accepts content domains without keywords", func(t *testing.T) {
		t.Parallel()

		n := mock.El("div", "",
			mock.El("img", "").With("src", "https://cdn.mobile.bg/big/abc.webp"),
		)

		without := extract.NewImageHarvester().HarvestImages(n, "https://list.example.org/")
		with := extract.NewImageHarvester(extract.WithContentDomains("mobile.bg")).HarvestImages(n, "https://list.example.org/")

		assert.Empty(t, without)
		assert.Equal(t, []string{"https://cdn.mobile.bg/big/abc.webp"}, with)
	})

	t.Run("trusts the page host by default", func(t *testing.T) {
		t.Parallel()

		n := mock.El("img", "").With("src", "/u/abc.webp")

		urls := extract.NewImageHarvester().HarvestImages(n, "https://dealer.example.net/stock")

		assert.Equal(t, []string{"https://dealer.example.net/u/abc.webp"}, urls)
	})

	t.Run("skips data URIs and tracking pixels", func(t *testing.T) {
		t.Parallel()

		n := mock.El("div", "",
			mock.El("img", "").With("src", "data:image/gif;base64,R0lGODlhAQABAAAAACw="),
			mock.El("img", "").With("src", "https://stats.example.com/pixel.gif?img=1"),
		)

		assert.Empty(t, extract.NewImageHarvester().HarvestImages(n, "https://cars.example.com/"))
	})
}
