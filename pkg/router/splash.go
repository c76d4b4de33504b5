package router

// DefaultSplash returns the spinner page shown while no target is confirmed
// UP, equivalent to the original controller's ensure_splash_file content. It
// is also written to disk at Config.SplashFile so a browser pointed directly
// at the file (rather than through the router) still sees something sane.
func DefaultSplash() string {
	return `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>connecting</title>
<style>
html,body{margin:0;height:100%;background:#000;display:flex;
  align-items:center;justify-content:center;font-family:sans-serif;color:#888}
.spinner{width:48px;height:48px;border:4px solid #333;border-top-color:#888;
  border-radius:50%;animation:spin 1s linear infinite}
@keyframes spin{to{transform:rotate(360deg)}}
</style>
</head><body><div class="spinner"></div></body></html>`
}
