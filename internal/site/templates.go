package site

// pageTemplate is the HTML template for every generated page. The markup
// follows the Material for MkDocs layout so the TOC conventions apply.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} - {{.SiteName}}</title>
<link rel="stylesheet" href="{{.BasePath}}style.css">
</head>
<body data-page="{{.Page}}">
<header class="md-header">
<a href="{{.BasePath}}index.html" class="md-header__title">{{.SiteName}}</a>
</header>
<div class="md-container">
<main class="md-main">
<div class="md-main__inner md-grid">
<div class="md-sidebar md-sidebar--primary">
<nav class="md-nav md-nav--primary" aria-label="Navigation">
{{.NavHTML}}</nav>
</div>
<div class="md-sidebar md-sidebar--secondary">
{{.TOCHTML}}</div>
<div class="md-content">
<article class="md-content__inner md-typeset">
{{.Content}}
</article>
</div>
</div>
</main>
</div>
<script src="{{.BasePath}}toc-live.js"></script>
</body>
</html>
`

// cssContent is written to style.css.
const cssContent = `:root {
  --fg: #1f2328;
  --muted: #59636e;
  --accent: #0969da;
  --bg: #ffffff;
  --sidebar: 15rem;
}

* { box-sizing: border-box; }

body {
  margin: 0;
  color: var(--fg);
  background: var(--bg);
  font: 16px/1.6 -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
}

.md-header {
  position: sticky;
  top: 0;
  z-index: 2;
  padding: 0.75rem 1.5rem;
  background: var(--accent);
}

.md-header__title { color: #fff; font-weight: 600; text-decoration: none; }

.md-main__inner {
  display: grid;
  grid-template-columns: var(--sidebar) minmax(0, 1fr) var(--sidebar);
  grid-template-areas: "primary content secondary";
  gap: 2rem;
  max-width: 80rem;
  margin: 0 auto;
  padding: 1.5rem;
}

.md-sidebar { position: sticky; top: 4rem; align-self: start; max-height: calc(100vh - 5rem); overflow-y: auto; font-size: 0.875rem; }
.md-sidebar--primary { grid-area: primary; }
.md-sidebar--secondary { grid-area: secondary; }
.md-content { grid-area: content; min-width: 0; }

.md-nav__title { display: block; font-weight: 600; color: var(--muted); margin-bottom: 0.5rem; }
.md-nav__list { list-style: none; margin: 0; padding: 0; }
.md-nav__item { margin: 0; }
.md-nav__link { display: block; padding: 0.15rem 0; color: var(--fg); text-decoration: none; cursor: pointer; }
.md-nav__link:hover { color: var(--accent); }
.md-nav__link--active { color: var(--accent); font-weight: 600; }
.md-nav__item--nested > .md-nav { padding-left: 0.75rem; }

/* Secondary TOC: only the expanded path shows its children. */
[data-md-component="toc"] .md-nav__item > .md-nav { display: none; }
[data-md-component="toc"] .md-nav__item[data-toc-expanded="true"] > .md-nav { display: block; }
[data-md-component="toc"] .md-nav { padding-left: 0; }
[data-md-component="toc"] [data-toc-level="2"] > .md-nav__link { padding-left: 0.75rem; }
[data-md-component="toc"] [data-toc-level="3"] > .md-nav__link { padding-left: 1.5rem; }
[data-md-component="toc"] [data-toc-level="4"] > .md-nav__link { padding-left: 2.25rem; }
[data-md-component="toc"] [data-toc-level="5"] > .md-nav__link { padding-left: 3rem; }

.md-typeset h1, .md-typeset h2, .md-typeset h3, .md-typeset h4 { scroll-margin-top: 4.5rem; line-height: 1.25; }
.md-typeset pre { padding: 0.75rem 1rem; overflow-x: auto; border-radius: 6px; background: #f6f8fa; }
.md-typeset code { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 0.875em; }
.md-typeset table { border-collapse: collapse; }
.md-typeset th, .md-typeset td { border: 1px solid #d1d9e0; padding: 0.35rem 0.75rem; }

@media (max-width: 60rem) {
  .md-main__inner { grid-template-columns: minmax(0, 1fr); grid-template-areas: "content"; }
  .md-sidebar { display: none; }
}
`

// liveJS is written to toc-live.js. When the page is served by tocsync it
// reports clicks, scroll position and fragment changes over a websocket and
// applies the TOC state the server sends back. Opened from disk it falls back
// to a local scroll-spy.
const liveJS = `(function () {
  "use strict";

  var ACTIVE = "md-nav__link--active";
  var root = document.querySelector(".md-sidebar--secondary [data-md-component='toc']");
  if (!root) return;

  var links = Array.prototype.slice.call(root.querySelectorAll("a.md-nav__link"));
  var headings = links.map(function (a) {
    var id = decodeURIComponent((a.getAttribute("href") || "").slice(1));
    return document.getElementById(id);
  });

  function currentHref() {
    var best = null;
    for (var i = 0; i < headings.length; i++) {
      var h = headings[i];
      if (h && h.getBoundingClientRect().top <= 80) best = links[i].getAttribute("href");
    }
    return best || "";
  }

  function applyState(state) {
    var items = state.items || [];
    var byHref = {};
    items.forEach(function (it) { if (!(it.target in byHref)) byHref[it.target] = it; });
    links.forEach(function (a) {
      var it = byHref[a.getAttribute("href")];
      var li = a.closest("li.md-nav__item");
      if (!it || !li) return;
      li.setAttribute("data-toc-level", String(it.depth));
      if (it.expanded) li.setAttribute("data-toc-expanded", "true");
      else li.removeAttribute("data-toc-expanded");
      a.classList.toggle(ACTIVE, !!it.active);
    });
  }

  function localSpy() {
    var last = null;
    function spy() {
      var href = currentHref();
      if (href === last) return;
      last = href;
      links.forEach(function (a) { a.classList.toggle(ACTIVE, a.getAttribute("href") === href); });
      var open = {};
      var a = href ? root.querySelector("a.md-nav__link[href='" + CSS.escape(href) + "']") : null;
      for (var li = a && a.closest("li.md-nav__item"); li && root.contains(li); li = li.parentElement.closest("li.md-nav__item")) {
        open[links.indexOf(li.querySelector("a.md-nav__link"))] = true;
      }
      links.forEach(function (l, i) {
        var item = l.closest("li.md-nav__item");
        if (!item) return;
        if (open[i]) item.setAttribute("data-toc-expanded", "true");
        else item.removeAttribute("data-toc-expanded");
      });
    }
    window.addEventListener("scroll", spy, { passive: true });
    spy();
  }

  if (location.protocol !== "http:" && location.protocol !== "https:") {
    localSpy();
    return;
  }

  var page = document.body.getAttribute("data-page") || "";
  var scheme = location.protocol === "https:" ? "wss:" : "ws:";
  var ws = new WebSocket(scheme + "//" + location.host + "/ws?page=" + encodeURIComponent(page + location.hash));
  var lastSent = null;

  function send(type, href) {
    if (ws.readyState !== WebSocket.OPEN) return;
    ws.send(JSON.stringify({ type: type, href: href }));
  }

  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === "state") applyState(msg.state);
  };
  ws.onerror = function () { localSpy(); };

  root.addEventListener("click", function (ev) {
    var a = ev.target.closest("a.md-nav__link");
    if (a && root.contains(a)) send("click", a.getAttribute("href"));
  });
  window.addEventListener("hashchange", function () { send("fragment", location.hash); });
  window.addEventListener("scroll", function () {
    var href = currentHref();
    if (href === lastSent) return;
    lastSent = href;
    send("highlight", href);
  }, { passive: true });
})();
`
