/*
Package pagegen runs generation cycles: it plans a batch of pages, spreads them
over freshly allocated folders, links each page to a handful of its siblings
and writes them to disk.

A cycle is strictly sequential. Pages are planned first, in memory, so every
page can link to any other page of the same batch; then each page is rendered
and written on its own. A failed write only loses that page, and a crash
mid-cycle leaves a valid, partial set of pages behind.
*/
package pagegen
