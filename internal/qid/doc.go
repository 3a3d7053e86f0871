/*
Package qid provides a structured representation for question identifiers,
which double as the column names of the answer table.

The canonical formats are:

	01-02-03                audio question 03 of audio item 02 in part 01
	01-questionnaire-04     question 04 of the questionnaire of part 01
	main-questionnaire-04   question 04 of the root questionnaire
	demo-01                 question 01 of the built-in demo screen

Every segment is zero-filled to two characters. This package centralizes
formatting and parsing so the compiler, the dependency engine and the
answer store agree on one scheme.
*/
package qid
