// Package synth repairs parsed query components and renders them into a
// single SQL statement.
//
// Rendering follows a fixed clause policy rather than inspecting filter
// contents: when grouping is present every filter goes to HAVING, otherwise
// to WHERE. The output grammar is
//
//	SELECT <items> FROM <table> [INNER JOIN <table> ON <cond>]*
//	    [WHERE <cond> | GROUP BY <cols> [HAVING <cond>]];
package synth
