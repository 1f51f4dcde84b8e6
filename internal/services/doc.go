// Package services wraps the external collaborators that mist drives but does not implement.
//
// # Extraction
//
// [YTDLP] implements [Extractor] by shelling out to yt-dlp. Every invocation uses
// [exec.CommandContext] so cancelling a merge kills in-flight downloads.
// Downloaded files follow the <title>.<id>.<ext> naming the diff engine relies on.
//
// # Titles
//
// [MusicTitleResolver] asks the YouTube Music player endpoint for video details and composes
// "author - title [owner]". Each request first acquires the shared [ratelimit.Limiter].
// A throttled response yields [shared.TitlePlaceholder] instead of an error so the batch keeps
// going; callers must not cache it.
//
// # Tags
//
// [LastFM] implements [TagFinder] by scraping last.fm search results with golang.org/x/net/html.
//
// # Error Handling
//
// Collaborator failures are wrapped with [shared.ErrItemFetch] so the orchestrator can record
// them in the failure ledger.
package services
