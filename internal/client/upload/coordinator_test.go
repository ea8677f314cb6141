package upload

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu sync.Mutex

	Err       error
	Calls     int
	LastAsset models.Asset
	LastNote  string

	// Started receives once per call; Release, when set, blocks the call.
	Started chan struct{}
	Release chan struct{}
}

func (f *fakeUploader) UploadPhoto(_ context.Context, asset models.Asset, note string) (models.Photo, error) {
	f.mu.Lock()
	f.Calls++
	f.LastAsset = asset
	f.LastNote = note
	n := f.Calls
	err := f.Err
	f.mu.Unlock()

	if f.Started != nil {
		f.Started <- struct{}{}
	}
	if f.Release != nil {
		<-f.Release
	}
	if err != nil {
		return models.Photo{}, err
	}
	return models.Photo{ID: int64(100 + n), URL: "http://x/" + asset.Name, Note: note}, nil
}

func (f *fakeUploader) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

type fakeRefresher struct {
	mu    sync.Mutex
	Calls int
	Err   error
}

func (f *fakeRefresher) Refresh(context.Context) ([]models.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	return nil, f.Err
}

var asset = models.Asset{Name: "cat.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}

func TestCoordinator_Upload(t *testing.T) {
	up := &fakeUploader{}
	rf := &fakeRefresher{}
	c := NewCoordinator(up, rf, nil)

	p, err := c.Upload(context.Background(), asset, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(101), p.ID)
	assert.Equal(t, "hello", up.LastNote)
	assert.Equal(t, asset, up.LastAsset)
	assert.Equal(t, 1, rf.Calls)

	_, ok := c.Draft()
	assert.False(t, ok)
}

func TestCoordinator_SecondCallWhileInFlightIsBusy(t *testing.T) {
	up := &fakeUploader{Started: make(chan struct{}, 1), Release: make(chan struct{})}
	rf := &fakeRefresher{}
	c := NewCoordinator(up, rf, nil)

	type result struct {
		p   models.Photo
		err error
	}
	first := make(chan result, 1)
	go func() {
		p, err := c.Upload(context.Background(), asset, "first")
		first <- result{p, err}
	}()

	select {
	case <-up.Started:
	case <-time.After(2 * time.Second):
		t.Fatal("first upload never started")
	}

	_, err := c.Upload(context.Background(), asset, "second")
	require.ErrorIs(t, err, common.ErrUploadBusy)
	_, err = c.Retry(context.Background())
	require.ErrorIs(t, err, common.ErrUploadBusy)
	assert.Equal(t, 1, up.calls())

	close(up.Release)
	r := <-first
	require.NoError(t, r.err)
	assert.Equal(t, "first", r.p.Note)
	assert.Equal(t, 1, up.calls())
	assert.Equal(t, 1, rf.Calls)

	// The slot is free again.
	up.Started = nil
	_, err = c.Upload(context.Background(), asset, "third")
	require.NoError(t, err)
}

func TestCoordinator_FailureKeepsDraftAndSkipsRefresh(t *testing.T) {
	up := &fakeUploader{Err: errors.New("413 too large")}
	rf := &fakeRefresher{}
	c := NewCoordinator(up, rf, nil)

	_, err := c.Upload(context.Background(), asset, "note")
	require.ErrorIs(t, err, common.ErrUpload)
	assert.Contains(t, err.Error(), "413 too large")
	assert.Zero(t, rf.Calls)

	d, ok := c.Draft()
	require.True(t, ok)
	assert.Equal(t, asset, d.Asset)
	assert.Equal(t, "note", d.Note)

	// Retrying re-submits the same draft.
	up.Err = nil
	p, err := c.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "note", p.Note)
	assert.Equal(t, asset, up.LastAsset)
	assert.Equal(t, 1, rf.Calls)

	_, ok = c.Draft()
	assert.False(t, ok)
}

func TestCoordinator_RetryFailureKeepsSameDraft(t *testing.T) {
	up := &fakeUploader{Err: errors.New("down")}
	c := NewCoordinator(up, &fakeRefresher{}, nil)

	_, err := c.Upload(context.Background(), asset, "n")
	require.Error(t, err)
	d1, _ := c.Draft()

	_, err = c.Retry(context.Background())
	require.ErrorIs(t, err, common.ErrUpload)
	d2, ok := c.Draft()
	require.True(t, ok)
	assert.Equal(t, d1.ID, d2.ID)
}

func TestCoordinator_RetryWithoutDraft(t *testing.T) {
	up := &fakeUploader{}
	c := NewCoordinator(up, &fakeRefresher{}, nil)

	_, err := c.Retry(context.Background())
	require.ErrorIs(t, err, common.ErrNoDraft)
	assert.Zero(t, up.Calls)
}

func TestCoordinator_EmptyAssetRejected(t *testing.T) {
	up := &fakeUploader{}
	c := NewCoordinator(up, &fakeRefresher{}, nil)

	_, err := c.Upload(context.Background(), models.Asset{Name: "x"}, "n")
	require.ErrorIs(t, err, common.ErrEmptyInput)
	assert.Zero(t, up.Calls)
}

func TestCoordinator_RefreshFailureDoesNotFailUpload(t *testing.T) {
	c := NewCoordinator(&fakeUploader{}, &fakeRefresher{Err: errors.New("list failed")}, nil)
	_, err := c.Upload(context.Background(), asset, "")
	require.NoError(t, err)
}

func TestCoordinator_DiscardDraft(t *testing.T) {
	c := NewCoordinator(&fakeUploader{Err: errors.New("x")}, &fakeRefresher{}, nil)
	_, _ = c.Upload(context.Background(), asset, "")
	c.DiscardDraft()
	_, err := c.Retry(context.Background())
	require.ErrorIs(t, err, common.ErrNoDraft)
}
