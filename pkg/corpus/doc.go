/*
Package corpus loads the keyword lists used to assemble page text and builds
random, word-count-bounded strings from them.

A Corpus holds one list per language mode. Lists are read once, line by line,
and never change afterwards, so a Corpus can be shared freely. When a list is
empty, text is assembled from FallbackWords instead.
*/
package corpus
