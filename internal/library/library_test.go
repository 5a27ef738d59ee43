package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signage/internal/probe"
	"signage/internal/queue"
	"signage/internal/store"
	"signage/internal/transcoder"
)

type fakeJobs struct {
	jobs    []queue.Job
	enqueue error
}

func (f *fakeJobs) Enqueue(job queue.Job) error {
	if f.enqueue != nil {
		return f.enqueue
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobs) runAll(t *testing.T) {
	t.Helper()
	jobs := f.jobs
	f.jobs = nil
	for _, job := range jobs {
		job.Run(context.Background())
	}
}

type fakeEncoder struct {
	normalizeCalls []string
	packageCalls   []string
	normalizeErr   error
	packageErr     error
	thumbnailErr   error
}

func (f *fakeEncoder) NormalizeToMP4(input, output string) error {
	f.normalizeCalls = append(f.normalizeCalls, input)
	if f.normalizeErr != nil {
		return f.normalizeErr
	}
	return os.WriteFile(output, []byte("mp4"), 0o644)
}

func (f *fakeEncoder) Thumbnail(input, output string, seek float64) error {
	if f.thumbnailErr != nil {
		return f.thumbnailErr
	}
	return os.WriteFile(output, []byte("jpg"), 0o644)
}

func (f *fakeEncoder) BuildAdaptivePackage(input, outputDir string, sourceHeight int) error {
	f.packageCalls = append(f.packageCalls, input)
	if f.packageErr != nil {
		return f.packageErr
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, transcoder.MasterManifestName), []byte("#EXTM3U\n"), 0o644)
}

type fakeInspector struct {
	video    probe.VideoInfo
	videoErr error
	image    probe.ImageInfo
}

func (f *fakeInspector) Video(path string) (*probe.VideoInfo, error) {
	if f.videoErr != nil {
		return nil, f.videoErr
	}
	info := f.video
	return &info, nil
}

func (f *fakeInspector) Image(path string) (*probe.ImageInfo, error) {
	info := f.image
	return &info, nil
}

type fixture struct {
	svc       *Service
	jobs      *fakeJobs
	encoder   *fakeEncoder
	inspector *fakeInspector
	paths     Paths
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	paths := Paths{
		Uploads:    filepath.Join(root, "uploads"),
		Thumbnails: filepath.Join(root, "thumbnails"),
		HLS:        filepath.Join(root, "hls"),
	}
	for _, dir := range []string{paths.Uploads, paths.Thumbnails, paths.HLS} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	jobs := &fakeJobs{}
	encoder := &fakeEncoder{}
	inspector := &fakeInspector{
		video: probe.VideoInfo{Duration: 60, Width: 1920, Height: 1080, Codec: "h264", AudioCodec: "aac"},
		image: probe.ImageInfo{Width: 800, Height: 600},
	}
	st := store.New(filepath.Join(root, "library.json"))
	return &fixture{
		svc:       New(st, jobs, encoder, inspector, paths),
		jobs:      jobs,
		encoder:   encoder,
		inspector: inspector,
		paths:     paths,
	}
}

func TestUploadVideoPipeline(t *testing.T) {
	f := newFixture(t)

	item, err := f.svc.UploadMedia("promo.mp4", strings.NewReader("video-bytes"))
	require.NoError(t, err)
	assert.Equal(t, store.KindVideo, item.Kind)
	assert.Equal(t, "promo", item.Title)

	// Admission queues exactly one processing job.
	require.Len(t, f.jobs.jobs, 1)
	assert.Equal(t, HLSProcessing, f.svc.HLSStatus(item))

	f.jobs.runAll(t)

	got, err := f.svc.GetVideo(item.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(60), got.Duration)
	assert.Equal(t, 1080, got.Height)
	assert.Equal(t, "h264", got.Codec)
	assert.NotEmpty(t, got.HLSManifest)
	assert.Equal(t, item.ID+".jpg", got.Thumbnail)
	assert.Equal(t, HLSReady, f.svc.HLSStatus(got))

	// Already h264/aac mp4: no normalization pass.
	assert.Empty(t, f.encoder.normalizeCalls)
	assert.Len(t, f.encoder.packageCalls, 1)
}

func TestUploadVideoNormalizesForeignCodecs(t *testing.T) {
	f := newFixture(t)
	f.inspector.video = probe.VideoInfo{Duration: 30, Width: 1280, Height: 720, Codec: "vp9", AudioCodec: "opus"}

	item, err := f.svc.UploadMedia("clip.webm", strings.NewReader("webm-bytes"))
	require.NoError(t, err)
	f.jobs.runAll(t)

	require.Len(t, f.encoder.normalizeCalls, 1)

	got, err := f.svc.GetVideo(item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID+".mp4", got.Filename, "record should point at the normalized file")

	// The original upload is replaced by the normalized copy.
	_, err = os.Stat(filepath.Join(f.paths.Uploads, item.ID+".webm"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.paths.Uploads, item.ID+".mp4"))
	assert.NoError(t, err)
}

func TestUploadVideoPackagingFailure(t *testing.T) {
	f := newFixture(t)
	f.encoder.packageErr = errors.New("encode blew up")

	item, err := f.svc.UploadMedia("promo.mp4", strings.NewReader("video-bytes"))
	require.NoError(t, err)
	f.jobs.runAll(t)

	got, err := f.svc.GetVideo(item.ID)
	require.NoError(t, err)
	assert.Equal(t, HLSError, f.svc.HLSStatus(got))

	// Partial output is cleaned up.
	_, statErr := os.Stat(filepath.Join(f.paths.HLS, item.ID))
	assert.True(t, os.IsNotExist(statErr))
}

func TestUploadQueueFullRollsBack(t *testing.T) {
	f := newFixture(t)
	f.jobs.enqueue = queue.ErrQueueFull

	_, err := f.svc.UploadMedia("promo.mp4", strings.NewReader("video-bytes"))
	assert.ErrorIs(t, err, queue.ErrQueueFull)

	videos, err := f.svc.Videos()
	require.NoError(t, err)
	assert.Empty(t, videos, "rejected upload must leave no record")

	entries, err := os.ReadDir(f.paths.Uploads)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected upload must leave no file")
}

func TestUploadImage(t *testing.T) {
	f := newFixture(t)

	item, err := f.svc.UploadMedia("poster.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, store.KindImage, item.Kind)
	assert.Equal(t, 800, item.Width)
	assert.Equal(t, float64(15), item.DisplayDuration, "image takes the default duration")
	assert.Empty(t, f.jobs.jobs, "images are not queued")
	assert.Equal(t, HLSNA, f.svc.HLSStatus(item))
}

func TestUploadUnsupportedType(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UploadMedia("notes.txt", strings.NewReader("hi"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDeleteVideoCascade(t *testing.T) {
	f := newFixture(t)

	item, err := f.svc.UploadMedia("promo.mp4", strings.NewReader("video-bytes"))
	require.NoError(t, err)
	f.jobs.runAll(t)

	require.NoError(t, f.svc.DeleteVideo(item.ID))

	_, err = f.svc.GetVideo(item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	playlist, err := f.svc.Playlist(false)
	require.NoError(t, err)
	assert.Empty(t, playlist)

	for _, path := range []string{
		filepath.Join(f.paths.Uploads, item.ID+".mp4"),
		filepath.Join(f.paths.Thumbnails, item.ID+".jpg"),
		filepath.Join(f.paths.HLS, item.ID),
	} {
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "expected %s to be removed", path)
	}
}

func TestPlaylistReadyOnly(t *testing.T) {
	f := newFixture(t)

	ready, err := f.svc.UploadMedia("ready.mp4", strings.NewReader("a"))
	require.NoError(t, err)
	f.jobs.runAll(t)

	pending, err := f.svc.UploadMedia("pending.mp4", strings.NewReader("b"))
	require.NoError(t, err)
	// pending's job never runs; it stays in processing.

	img, err := f.svc.UploadMedia("poster.jpg", strings.NewReader("c"))
	require.NoError(t, err)

	all, err := f.svc.Playlist(false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	readyOnly, err := f.svc.Playlist(true)
	require.NoError(t, err)
	require.Len(t, readyOnly, 2)
	assert.Equal(t, ready.ID, readyOnly[0].ID)
	assert.Equal(t, img.ID, readyOnly[1].ID)
	assert.NotEmpty(t, readyOnly[0].HLSURL)
	_ = pending
}

func TestSetPlaylistValidatesIDs(t *testing.T) {
	f := newFixture(t)
	err := f.svc.SetPlaylist([]store.PlaylistEntry{{Type: store.EntryMedia, ID: "ghost"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaylistPrunesDanglingEntries(t *testing.T) {
	f := newFixture(t)

	item, err := f.svc.UploadMedia("promo.mp4", strings.NewReader("a"))
	require.NoError(t, err)
	f.jobs.runAll(t)
	require.NoError(t, f.svc.SetPlaylist([]store.PlaylistEntry{{Type: store.EntryMedia, ID: item.ID}}))
	require.NoError(t, f.svc.DeleteVideo(item.ID))

	playlist, err := f.svc.Playlist(false)
	require.NoError(t, err)
	assert.Empty(t, playlist)
}

func TestBackfillQueuesOnlyMissingManifests(t *testing.T) {
	f := newFixture(t)

	done, err := f.svc.UploadMedia("done.mp4", strings.NewReader("a"))
	require.NoError(t, err)
	missing, err := f.svc.UploadMedia("missing.mp4", strings.NewReader("b"))
	require.NoError(t, err)

	// done is fully processed; missing's job is dropped on the floor, as
	// if the process died mid-encode.
	require.Len(t, f.jobs.jobs, 2)
	f.jobs.jobs[0].Run(context.Background())
	f.jobs.jobs = nil
	f.svc.setProcessing(missing.ID, false)

	queued, err := f.svc.Backfill()
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	require.Len(t, f.jobs.jobs, 1)
	assert.Equal(t, missing.ID, f.jobs.jobs[0].ID)

	got, err := f.svc.GetVideo(missing.ID)
	require.NoError(t, err)
	assert.Equal(t, HLSProcessing, f.svc.HLSStatus(got))

	f.jobs.runAll(t)
	got, err = f.svc.GetVideo(missing.ID)
	require.NoError(t, err)
	assert.Equal(t, HLSReady, f.svc.HLSStatus(got))

	// A second pass finds nothing to do.
	queued, err = f.svc.Backfill()
	require.NoError(t, err)
	assert.Zero(t, queued)
	assert.Empty(t, f.jobs.jobs)
	_ = done
}

func TestBackfillSkipsMissingSourceFile(t *testing.T) {
	f := newFixture(t)

	item, err := f.svc.UploadMedia("gone.mp4", strings.NewReader("a"))
	require.NoError(t, err)
	f.jobs.jobs = nil
	f.svc.setProcessing(item.ID, false)
	require.NoError(t, os.Remove(filepath.Join(f.paths.Uploads, item.Filename)))

	queued, err := f.svc.Backfill()
	require.NoError(t, err)
	assert.Zero(t, queued)
}

func TestSettingsClamping(t *testing.T) {
	f := newFixture(t)

	v1, v2 := float64(1), float64(999)
	settings, err := f.svc.UpdateSettings(SettingsUpdate{ImageDefaultDuration: &v1, PhotoGroupDuration: &v2})
	require.NoError(t, err)
	assert.Equal(t, float64(MinImageDuration), settings.ImageDefaultDuration)
	assert.Equal(t, float64(MaxGroupDuration), settings.PhotoGroupDuration)
}

func TestApplyDefaultDurationToImages(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UploadMedia("a.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = f.svc.UploadMedia("b.png", strings.NewReader("b"))
	require.NoError(t, err)

	v := float64(45)
	_, err = f.svc.UpdateSettings(SettingsUpdate{ImageDefaultDuration: &v})
	require.NoError(t, err)

	count, err := f.svc.ApplyDefaultDurationToImages()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	videos, err := f.svc.Videos()
	require.NoError(t, err)
	for _, item := range videos {
		assert.Equal(t, float64(45), item.DisplayDuration)
	}
}

func TestPhotoGroupLifecycle(t *testing.T) {
	f := newFixture(t)

	group, err := f.svc.CreatePhotoGroup("Summer Trip", "June 2026", 0)
	require.NoError(t, err)
	assert.Equal(t, float64(30), group.DisplayDuration, "falls back to default duration")

	// Empty groups are excluded from the rotation.
	playlist, err := f.svc.Playlist(false)
	require.NoError(t, err)
	assert.Empty(t, playlist)

	photo, err := f.svc.AddPhoto(group.ID, "beach.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, photo.Filename)

	playlist, err = f.svc.Playlist(true)
	require.NoError(t, err)
	require.Len(t, playlist, 1)
	assert.Equal(t, "photoGroup", playlist[0].Type)
	assert.Len(t, playlist[0].Photos, 1)

	require.NoError(t, f.svc.DeletePhoto(group.ID, photo.ID))
	require.NoError(t, f.svc.DeletePhotoGroup(group.ID))

	_, err = f.svc.GetPhotoGroup(group.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatsAndErrorWindow(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.RecordVideoPlayed())
	require.NoError(t, f.svc.RecordVideoPlayed())
	require.NoError(t, f.svc.RecordPlaybackError("stalled", "item-1"))

	report, err := f.svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.VideosPlayed)
	require.Len(t, report.RecentErrors, 1)
	require.NotNil(t, report.LastError)
	assert.Equal(t, "stalled", report.LastError.Message)

	require.NoError(t, f.svc.ClearErrors())
	report, err = f.svc.Stats()
	require.NoError(t, err)
	assert.Empty(t, report.RecentErrors)
	assert.Nil(t, report.LastError)
}

func TestPruneErrorsWindow(t *testing.T) {
	now := time.Now()
	errs := []store.ErrorRecord{
		{Message: "old", At: now.Add(-25 * time.Hour)},
		{Message: "recent", At: now.Add(-time.Hour)},
	}
	kept := pruneErrors(errs, now)
	require.Len(t, kept, 1)
	assert.Equal(t, "recent", kept[0].Message)
}

func TestAverageVideoDuration(t *testing.T) {
	f := newFixture(t)

	f.inspector.video.Duration = 30
	_, err := f.svc.UploadMedia("a.mp4", strings.NewReader("a"))
	require.NoError(t, err)
	f.jobs.runAll(t)

	f.inspector.video.Duration = 90
	_, err = f.svc.UploadMedia("b.mp4", strings.NewReader("b"))
	require.NoError(t, err)
	f.jobs.runAll(t)

	report, err := f.svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, float64(60), report.AverageVideoDuration)
}

func TestCleanupThumbnails(t *testing.T) {
	f := newFixture(t)

	item, err := f.svc.UploadMedia("promo.mp4", strings.NewReader("a"))
	require.NoError(t, err)
	f.jobs.runAll(t)

	orphan := filepath.Join(f.paths.Thumbnails, "orphan.jpg")
	require.NoError(t, os.WriteFile(orphan, []byte("x"), 0o644))

	removed, err := f.svc.CleanupThumbnails()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(orphan)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.paths.Thumbnails, item.ID+".jpg"))
	assert.NoError(t, err)
}

func TestPlayerStatusRoundTrip(t *testing.T) {
	f := newFixture(t)

	f.svc.SetPlayerStatus(PlayerStatus{CurrentItemID: "x", CurrentTime: 12.5, State: "playing", MediaKind: "video"})
	got := f.svc.GetPlayerStatus()
	assert.Equal(t, "x", got.CurrentItemID)
	assert.Equal(t, "playing", got.State)
	assert.Equal(t, "video", got.MediaKind)
	assert.False(t, got.LastUpdate.IsZero())
}
