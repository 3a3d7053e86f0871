// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package experiment provides the typed, immutable representation of an
// experiment configuration. Build reads the Config Tree exactly once and
// produces a Definition; nothing downstream touches the tree again, and the
// Definition itself is never modified after Build returns.
//
// # Core Concepts
//
//   - Definition: global settings (participant id mode, randomisation, demo,
//     welcome and goodbye text), the root questionnaire and the ordered parts.
//
//   - Part: ordered audio items, an intro, an optional break policy and an
//     optional trailing questionnaire.
//
//   - AudioItem: one or two sample files with their questions. Items with a
//     repeat count are expanded here into independent copies labelled
//     "<label>_01", "<label>_02", ... and the template is dropped.
//
//   - Questionnaire: ordered questions plus the splitting mode.
//
// Question identifiers, shuffling and screen layout are the compiler's job;
// this package only validates and normalises what the author wrote.
package experiment
