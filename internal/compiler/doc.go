// Package compiler turns an experiment.Definition into the linked sequence of
// screens a session walks through.
//
// Compilation runs in fixed stages:
//
//  1. order: parts and audio items are shuffled when requested, on copies of
//     the definition's slices, using the injected random source;
//  2. identify: every question is cloned and given its id (see package qid);
//  3. plan: questionnaires are split into screens and dependency controllers
//     are resolved within their screen. All ConfigErrors of this stage are
//     reported together and no screen is built when there is one;
//  4. linearize: screens are emitted in session order and linked through a
//     screengraph.Graph, which is validated once "end" and "final" exist.
//
// The definition is never modified.
package compiler
