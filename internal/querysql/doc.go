// Package querysql renders query specs as SQL text.
//
// A Compiler is bound to one entity, a model and a dialect. Statements are
// assembled from templates in two passes: statement-level placeholders
// (%(columns), %(tables), %(where), %(groupBy), %(having), %(orderBy),
// %(set)) are resolved first, then the simple placeholders they and the
// template produce (%(tblalias), %(field), %(whereParam), %(param)).
//
// Values are inlined as literals encoded by the dialect; no bind
// parameters are produced. Related entities are joined with LEFT JOIN and
// aliased parentAlias_relation.
package querysql
