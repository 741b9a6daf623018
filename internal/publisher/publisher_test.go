package publisher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentPhoto struct {
	data     []byte
	filename string
	caption  string
}

type fakeSender struct {
	messages []string
	photos   []sentPhoto
	err      error
}

func (f *fakeSender) SendMessage(_ context.Context, text string) error {
	f.messages = append(f.messages, text)
	return f.err
}

func (f *fakeSender) SendPhoto(_ context.Context, photo io.Reader, filename, caption string) error {
	data, _ := io.ReadAll(photo)
	f.photos = append(f.photos, sentPhoto{data: data, filename: filename, caption: caption})
	return f.err
}

type fakeCropper struct {
	gotURL    string
	gotPixels int
	err       error
}

func (f *fakeCropper) CropBottom(_ context.Context, imageURL string, pixels int) (*bytes.Reader, error) {
	f.gotURL, f.gotPixels = imageURL, pixels
	if f.err != nil {
		return nil, f.err
	}
	return bytes.NewReader([]byte("jpeg")), nil
}

var post = Post{
	Title:      "Биткоин обновил максимум",
	Summary:    "Цена выросла на 5%.",
	SourceLink: "https://crypto.news/bitcoin-hits-new-high/",
}

func TestComposeMessage(t *testing.T) {
	got := ComposeMessage(post, 0)
	assert.Equal(t, "*Биткоин обновил максимум*\n\nЦена выросла на 5%.\n\n🔗 Источник: https://crypto.news/bitcoin-hits-new-high/", got)
}

func TestComposeMessage_EscapesMarkdown(t *testing.T) {
	got := ComposeMessage(Post{Title: "a*b", Summary: "x_y [z]", SourceLink: "https://crypto.news/a/"}, 0)
	assert.Contains(t, got, `*a\*b*`)
	assert.Contains(t, got, `x\_y \[z]`)
}

func TestComposeMessage_EscapesSourceLink(t *testing.T) {
	got := ComposeMessage(Post{Title: "t", Summary: "s", SourceLink: "https://crypto.news/eth_etf-approved/"}, 0)
	assert.True(t, strings.HasSuffix(got, `🔗 Источник: https://crypto.news/eth\_etf-approved/`), got)
}

func TestComposeMessage_ShortensOnlySummary(t *testing.T) {
	long := Post{
		Title:      post.Title,
		Summary:    strings.Repeat("Цена биткоина выросла. ", 60),
		SourceLink: post.SourceLink,
	}

	got := ComposeMessage(long, 1024)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 1024)
	assert.True(t, strings.HasPrefix(got, "*Биткоин обновил максимум*\n\n"))
	assert.True(t, strings.HasSuffix(got, "…\n\n🔗 Источник: "+post.SourceLink), got)
}

func TestComposeMessage_CutNeverSplitsEscape(t *testing.T) {
	frame := utf8.RuneCountInString(ComposeMessage(Post{Title: "t", SourceLink: "l"}, 0))
	got := ComposeMessage(Post{Title: "t", Summary: "ab_cd_ef_gh", SourceLink: "l"}, frame+5)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), frame+5)
	assert.Contains(t, got, `ab\_…`)
}

func TestComposeMessage_FitsUnchanged(t *testing.T) {
	assert.Equal(t, ComposeMessage(post, 0), ComposeMessage(post, 4096))
}

func TestPublish_LongSummaryKeepsSourceInCaption(t *testing.T) {
	sender := &fakeSender{}
	p := post
	p.ImageURL = "https://crypto.news/img/lead.webp"
	p.Summary = strings.Repeat("Цена биткоина выросла. ", 60)

	_, err := New(sender, &fakeCropper{}, 100).Publish(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, sender.photos, 1)
	caption := sender.photos[0].caption
	assert.LessOrEqual(t, utf8.RuneCountInString(caption), 1024)
	assert.Contains(t, caption, p.SourceLink)
}

func TestPublish_NoImageSendsTextOnly(t *testing.T) {
	sender := &fakeSender{}
	cropper := &fakeCropper{}

	res, err := New(sender, cropper, 100).Publish(context.Background(), post)
	require.NoError(t, err)

	assert.Equal(t, Result{Kind: KindText}, res)
	require.Len(t, sender.messages, 1)
	assert.Empty(t, sender.photos)
	assert.Contains(t, sender.messages[0], post.SourceLink)
	assert.Empty(t, cropper.gotURL)
}

func TestPublish_WithImageSendsPhoto(t *testing.T) {
	sender := &fakeSender{}
	cropper := &fakeCropper{}
	p := post
	p.ImageURL = "https://crypto.news/img/lead.webp"

	res, err := New(sender, cropper, 100).Publish(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, Result{Kind: KindPhoto}, res)
	assert.Empty(t, sender.messages)
	require.Len(t, sender.photos, 1)
	assert.Equal(t, []byte("jpeg"), sender.photos[0].data)
	assert.Equal(t, "cropped.jpg", sender.photos[0].filename)
	assert.Equal(t, ComposeMessage(p, 1024), sender.photos[0].caption)
	assert.Equal(t, p.ImageURL, cropper.gotURL)
	assert.Equal(t, 100, cropper.gotPixels)
}

func TestPublish_CropFailureFallsBackToText(t *testing.T) {
	sender := &fakeSender{}
	p := post
	p.ImageURL = "https://crypto.news/img/broken.webp"

	res, err := New(sender, &fakeCropper{err: errors.New("decode failed")}, 100).Publish(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, Result{Kind: KindText, Degraded: true}, res)
	assert.Len(t, sender.messages, 1)
	assert.Empty(t, sender.photos)
}

func TestPublish_SendFailureIsReturned(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram API error: status 400")}

	res, err := New(sender, &fakeCropper{}, 100).Publish(context.Background(), post)
	require.Error(t, err)
	assert.Equal(t, KindText, res.Kind)
	assert.Contains(t, err.Error(), "send text post")
}
